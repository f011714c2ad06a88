// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package config

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fvbommel/sortorder"

	"github.com/portalctl/portalctl/internal/config/data"
)

// Resources holds the user declared resource specs keyed by name.
type Resources struct {
	specs map[string]data.ResourceSpec
	mx    sync.RWMutex
}

// NewResources creates an empty resource set.
func NewResources() *Resources {
	return &Resources{specs: make(map[string]data.ResourceSpec)}
}

// Load loads resources from the default config file.
func (r *Resources) Load() error {
	return r.LoadFrom(AppResourcesFile)
}

// LoadFrom merges the specs of path over the current ones. A missing file
// is not an error, an invalid spec fails the whole file.
func (r *Resources) LoadFrom(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	var file data.ResourceFile
	if err := data.LoadYAMLStrict(path, &file); err != nil {
		return err
	}
	for _, spec := range file.Resources {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	r.mx.Lock()
	defer r.mx.Unlock()
	for _, spec := range file.Resources {
		r.specs[spec.Name] = spec
	}

	return nil
}

// SaveTo writes the current specs to path.
func (r *Resources) SaveTo(path string) error {
	file := data.ResourceFile{}
	for _, n := range r.Names() {
		spec, _ := r.Get(n)
		file.Resources = append(file.Resources, spec)
	}

	return data.SaveYAML(path, file)
}

// Get returns a spec by name.
func (r *Resources) Get(name string) (data.ResourceSpec, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	spec, ok := r.specs[name]
	return spec, ok
}

// Set adds or replaces a spec.
func (r *Resources) Set(spec data.ResourceSpec) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.specs[spec.Name] = spec
}

// Names returns every spec name in natural order.
func (r *Resources) Names() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Sort(sortorder.Natural(names))

	return names
}
