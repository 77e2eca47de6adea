package amix

import (
	"fmt"
	"sort"
	"sync"
)

// StrategyCreator builds a new Strategy instance.
type StrategyCreator func() Strategy

// StrategyFactory is the registry the driver resolves strategy names from.
type StrategyFactory interface {
	// Register adds or replaces a creator under name.
	Register(name string, creator StrategyCreator)
	// Has reports whether name is registered.
	Has(name string) bool
	// Create returns a fresh instance.
	Create(name string) (Strategy, error)
	// Get returns the cached instance, creating it on first use.
	Get(name string) (Strategy, error)
	// List returns the registered names in sorted order.
	List() []string
	// GetAll returns one cached instance per registered name.
	GetAll() map[string]Strategy
}

// DefaultFactory is the thread-safe StrategyFactory implementation.
type DefaultFactory struct {
	mu       sync.RWMutex
	creators map[string]StrategyCreator
	cache    map[string]Strategy
}

// NewDefaultFactory returns a factory with the built-in strategies
// registered.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators: make(map[string]StrategyCreator),
		cache:    make(map[string]Strategy),
	}
	f.Register(StrategyFused, func() Strategy { return FusedStrategy{} })
	f.Register(StrategySymmetric, func() Strategy { return SymmetricStrategy{} })
	f.Register(StrategyFull, func() Strategy { return FullStrategy{} })
	f.Register(StrategySegmented, func() Strategy { return SegmentedStrategy{} })
	f.Register(StrategyIndexed, func() Strategy { return IndexedStrategy{} })
	return f
}

var (
	globalFactory     *DefaultFactory
	globalFactoryOnce sync.Once
)

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	globalFactoryOnce.Do(func() {
		globalFactory = NewDefaultFactory()
	})
	return globalFactory
}

func (f *DefaultFactory) Register(name string, creator StrategyCreator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
	delete(f.cache, name)
}

func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

func (f *DefaultFactory) Create(name string) (Strategy, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
	return creator(), nil
}

func (f *DefaultFactory) Get(name string) (Strategy, error) {
	f.mu.RLock()
	if s, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return s, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.cache[name]; ok {
		return s, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
	s := creator()
	f.cache[name] = s
	return s, nil
}

func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *DefaultFactory) GetAll() map[string]Strategy {
	all := make(map[string]Strategy)
	for _, name := range f.List() {
		if s, err := f.Get(name); err == nil {
			all[name] = s
		}
	}
	return all
}
