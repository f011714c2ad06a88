// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package config

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fvbommel/sortorder"

	"github.com/portalctl/portalctl/internal/config/data"
)

// Aliases represents the alias configuration.
type Aliases struct {
	Alias map[string]string `yaml:"aliases"`
	mx    sync.RWMutex      `yaml:"-"`
}

// DefaultAliases are the built-in command shortcuts.
var DefaultAliases = map[string]string{
	"u":    "users",
	"usr":  "users",
	"user": "users",

	"p":       "products",
	"prod":    "products",
	"product": "products",

	"cls":   "classes",
	"class": "classes",
	"sec":   "sections",
	"sub":   "subsections",
	"subj":  "subjects",
	"md":    "masterdata",
	"map":   "mapping",
}

// NewAliases creates an Aliases with default aliases loaded.
func NewAliases() *Aliases {
	a := &Aliases{
		Alias: make(map[string]string, len(DefaultAliases)),
	}
	for k, v := range DefaultAliases {
		a.Alias[k] = v
	}

	return a
}

// Load loads aliases from the default config file.
func (a *Aliases) Load() error {
	return a.LoadFrom(AppAliasesFile)
}

// LoadFrom merges the aliases of path over the current ones. A missing file
// keeps the current set.
func (a *Aliases) LoadFrom(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded Aliases
	if err := data.LoadYAML(path, &loaded); err != nil {
		return err
	}

	a.mx.Lock()
	defer a.mx.Unlock()
	for k, v := range loaded.Alias {
		a.Alias[strings.ToLower(k)] = v
	}

	return nil
}

// Save saves aliases to the default config file.
func (a *Aliases) Save() error {
	return a.SaveTo(AppAliasesFile)
}

// SaveTo saves aliases to a specific file path.
func (a *Aliases) SaveTo(path string) error {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return data.SaveYAML(path, a)
}

// Resolve returns the resource an alias points to, or the input itself.
func (a *Aliases) Resolve(alias string) string {
	key := strings.ToLower(strings.TrimSpace(alias))

	a.mx.RLock()
	defer a.mx.RUnlock()
	if resource, ok := a.Alias[key]; ok {
		return resource
	}

	return key
}

// Set sets an alias.
func (a *Aliases) Set(alias, resource string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.Alias[strings.ToLower(alias)] = resource
}

// Delete removes an alias.
func (a *Aliases) Delete(alias string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	delete(a.Alias, strings.ToLower(alias))
}

// For lists the aliases of resource in natural order.
func (a *Aliases) For(resource string) []string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	var out []string
	for k, v := range a.Alias {
		if v == resource {
			out = append(out, k)
		}
	}
	sort.Sort(sortorder.Natural(out))

	return out
}

// Names returns every alias in natural order.
func (a *Aliases) Names() []string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	out := make([]string, 0, len(a.Alias))
	for k := range a.Alias {
		out = append(out, k)
	}
	sort.Sort(sortorder.Natural(out))

	return out
}
