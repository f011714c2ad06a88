// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package config loads the portalctl settings. Values resolve as defaults,
// then the YAML file, then PORTAL_ environment variables, then CLI flags.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/portalctl/portalctl/internal/config/data"
)

// Config is the root configuration for the application.
type Config struct {
	Portal *Portal `yaml:"portalctl"`
	mx     sync.RWMutex
}

// NewConfig creates a Config holding the defaults.
func NewConfig() *Config {
	return &Config{Portal: NewPortal()}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, the current config is kept unless force is set.
func (c *Config) Load(path string, force bool) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !force {
			return nil
		}
		return fmt.Errorf("config file does not exist: %s", path)
	}

	if err := data.LoadYAML(path, c); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if c.Portal == nil {
		c.Portal = NewPortal()
	}
	c.Portal.Validate()

	return nil
}

// Save saves the configuration to the application config file.
// If force is false, only saves if the file already exists.
func (c *Config) Save(force bool) error {
	return c.SaveTo(AppConfigFile, force)
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string, force bool) error {
	c.mx.RLock()
	defer c.mx.RUnlock()

	if path == "" {
		return fmt.Errorf("no config file path configured")
	}
	if _, err := os.Stat(path); err != nil && !force {
		return nil
	}
	if err := data.SaveYAML(path, c); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", path, err)
	}

	return nil
}

// Refine layers the environment then the CLI flags over the loaded file and
// repairs whatever ended up invalid.
func (c *Config) Refine(flags *data.Flags, env Env) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.Portal == nil {
		return fmt.Errorf("config.Portal is nil")
	}
	c.Portal.ApplyEnv(env)
	c.Portal.Override(flags)
	c.Portal.Validate()

	return nil
}
