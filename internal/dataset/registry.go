package dataset

import (
	"fmt"
	"sort"
)

type Registry struct {
	loaders map[string]func() (*Dataset, error)
}

func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]func() (*Dataset, error))}

	r.loaders["iris"] = Iris
	r.loaders["blobs"] = func() (*Dataset, error) {
		return Blobs(180, 3, 0.9, 7), nil
	}
	r.loaders["moons"] = func() (*Dataset, error) {
		return Moons(200, 0.12, 11), nil
	}

	return r
}

// Register adds or replaces a named loader.
func (r *Registry) Register(name string, load func() (*Dataset, error)) {
	r.loaders[name] = load
}

func (r *Registry) Load(name string) (*Dataset, error) {
	fn, ok := r.loaders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	ds, err := fn()
	if err != nil {
		return nil, fmt.Errorf("dataset: loading %s: %w", name, err)
	}
	return ds, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
