package credentials

import (
	"fmt"
)

// Source indicates where a token was found
type Source string

const (
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceNone    Source = "none"
)

// Token is a resolved remote bearer token
type Token struct {
	Value  string
	Source Source
}

// Resolver finds remote tokens with the priority Keyring > Environment > Config
type Resolver struct {
	useKeyring bool
}

// NewResolver creates a resolver that consults the OS keyring first
func NewResolver() *Resolver {
	return &Resolver{useKeyring: true}
}

// WithoutKeyring returns a resolver that skips the OS keyring
func WithoutKeyring() *Resolver {
	return &Resolver{}
}

// Resolve returns the token for remoteName. A remote without any token is
// not an error: servers may run without authentication, so SourceNone is
// returned with an empty value.
func (r *Resolver) Resolve(remoteName, configToken string) (*Token, error) {
	if remoteName == "" {
		return nil, fmt.Errorf("remote name is required for token resolution")
	}

	if r.useKeyring && IsAvailable() {
		if token, err := GetToken(remoteName); err == nil {
			return &Token{Value: token, Source: SourceKeyring}, nil
		}
	}

	if token := GetEnvToken(remoteName); token != "" {
		return &Token{Value: token, Source: SourceEnv}, nil
	}

	if configToken != "" {
		return &Token{Value: configToken, Source: SourceConfig}, nil
	}

	return &Token{Source: SourceNone}, nil
}
