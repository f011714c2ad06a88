// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package dao

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fvbommel/sortorder"

	"github.com/portalctl/portalctl/internal/config"
	"github.com/portalctl/portalctl/internal/config/data"
)

// Registry resolves commands and aliases to resources.
type Registry struct {
	specs    map[string]data.ResourceSpec
	aliases  *config.Aliases
	readOnly bool
	mx       sync.RWMutex
}

// NewRegistry seeds a registry with the built-ins, then the user declared
// resources, which win on name clashes.
func NewRegistry(custom *config.Resources, aliases *config.Aliases, readOnly bool) *Registry {
	if aliases == nil {
		aliases = config.NewAliases()
	}
	r := Registry{
		specs:    make(map[string]data.ResourceSpec),
		aliases:  aliases,
		readOnly: readOnly,
	}
	for _, s := range Builtins() {
		r.Register(s)
	}
	if custom != nil {
		for _, n := range custom.Names() {
			s, _ := custom.Get(n)
			r.Register(s)
		}
	}

	return &r
}

// Register adds spec and its declared aliases.
func (r *Registry) Register(spec data.ResourceSpec) {
	r.mx.Lock()
	r.specs[spec.Name] = spec
	r.mx.Unlock()

	for _, a := range spec.Aliases {
		r.aliases.Set(a, spec.Name)
	}
}

// Lookup resolves a command, name or alias, to its resource.
func (r *Registry) Lookup(cmd string) (*Resource, error) {
	name := r.aliases.Resolve(cmd)

	r.mx.RLock()
	spec, ok := r.specs[name]
	r.mx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, strings.TrimSpace(cmd))
	}

	return NewResource(spec, r.readOnly), nil
}

// ReadOnly reports whether every resource is read-only.
func (r *Registry) ReadOnly() bool {
	return r.readOnly
}

// Names returns every resource name in natural order.
func (r *Registry) Names() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Sort(sortorder.Natural(names))

	return names
}

// Suggest lists names and aliases starting with prefix, for command
// completion.
func (r *Registry) Suggest(prefix string) []string {
	prefix = strings.ToLower(prefix)
	seen := make(map[string]struct{})
	var out []string
	for _, n := range append(r.Names(), r.aliases.Names()...) {
		if _, dup := seen[n]; dup || !strings.HasPrefix(n, prefix) || n == prefix {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Sort(sortorder.Natural(out))

	return out
}
