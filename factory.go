package filesniff

import (
	"fmt"
	"sort"
	"sync"
)

// SourceFactory is a function that creates a HeaderSource from a config
type SourceFactory func(cfg *Config) (HeaderSource, error)

var (
	sourceFactories = make(map[string]SourceFactory)
	factoryMutex    sync.RWMutex
)

// RegisterSource registers a source factory function. Registering a name
// twice replaces the earlier factory.
func RegisterSource(name string, factory SourceFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	sourceFactories[name] = factory
}

// CreateSource creates a source instance from config
func CreateSource(cfg *Config) (HeaderSource, error) {
	factoryMutex.RLock()
	factory, exists := sourceFactories[cfg.Source]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("source %s not registered", cfg.Source)
	}

	return factory(cfg)
}

// RegisteredSources returns the names of all registered sources, sorted
func RegisteredSources() []string {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()

	names := make([]string, 0, len(sourceFactories))
	for name := range sourceFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
