package backend

import (
	"fmt"
	"sort"
	"sync"
)

// RemoteConstructor is a function that creates a remote store from its config
type RemoteConstructor func(config RemoteConfig) (RemoteStore, error)

// Registry holds registered remote store constructors
type Registry struct {
	mu               sync.RWMutex
	typeConstructors map[string]RemoteConstructor
}

var globalRegistry = &Registry{
	typeConstructors: make(map[string]RemoteConstructor),
}

// RegisterRemoteType registers a remote store constructor for a config type
func RegisterRemoteType(remoteType string, constructor RemoteConstructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.typeConstructors[remoteType] = constructor
}

// GetRemoteConstructor returns the constructor for a remote type
func GetRemoteConstructor(remoteType string) (RemoteConstructor, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	constructor, ok := globalRegistry.typeConstructors[remoteType]
	if !ok {
		return nil, fmt.Errorf("unsupported remote type: %s", remoteType)
	}
	return constructor, nil
}

// RegisteredRemoteTypes returns the sorted names of every registered type
func RegisteredRemoteTypes() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	types := make([]string, 0, len(globalRegistry.typeConstructors))
	for name := range globalRegistry.typeConstructors {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// NewRemoteStore creates the remote store described by config
func NewRemoteStore(config RemoteConfig) (RemoteStore, error) {
	constructor, err := GetRemoteConstructor(config.Type)
	if err != nil {
		return nil, err
	}
	return constructor(config)
}
