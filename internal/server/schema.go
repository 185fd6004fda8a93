package server

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	profileSchema = mustCompile("profile.schema.json")
	recordSchema  = mustCompile("record.schema.json")
)

// mustCompile compiles an embedded schema. The schemas ship with the binary,
// so a failure is a programming error.
func mustCompile(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	url := "mem://schemas/" + name
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("load schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// schemaError reduces a validation failure to its first leaf cause
func schemaError(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	path := ve.InstanceLocation
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, strings.TrimSpace(ve.Message))
}
