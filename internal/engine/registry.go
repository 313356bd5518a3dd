package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Info contains metadata about a registered engine.
type Info struct {
	ID    string
	Title string
}

type entry struct {
	title   string
	factory Factory
}

var (
	entries = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds an engine factory to the registry.
// Typically called from an engine package's init() function.
// Panics if an engine with the same ID is already registered.
func Register(id, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[id]; exists {
		panic(fmt.Sprintf("engine: %q already registered", id))
	}
	entries[id] = entry{title: title, factory: f}
}

// List returns information about all registered engines, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(entries))
	for id, e := range entries {
		result = append(result, Info{ID: id, Title: e.title})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Lookup returns the factory registered under id.
func Lookup(id string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	return e.factory, ok
}

// Exists checks if an engine with the given ID is registered.
func Exists(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Named returns a factory that looks id up at call time. An unknown id
// surfaces as an instantiation error on the first call.
func Named(id string) Factory {
	return func(ctx context.Context, opts Options) (Engine, error) {
		return Create(ctx, id, opts)
	}
}

// Create instantiates a new engine by its ID. Every failure, including an
// unknown ID, matches ErrInstantiation.
func Create(ctx context.Context, id string, opts Options) (Engine, error) {
	f, ok := Lookup(id)
	if !ok {
		return nil, &InstantiationError{Engine: id, Err: errors.New("unknown engine")}
	}

	eng, err := f(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrInstantiation) {
			return nil, err
		}
		return nil, &InstantiationError{Engine: id, Err: err}
	}
	return eng, nil
}
