// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package config

import (
	"os"
	"path/filepath"
)

const AppName = "portalctl"

var (
	// AppConfigDir is ~/.config/portalctl
	AppConfigDir string

	// AppStateDir is ~/.local/state/portalctl
	AppStateDir string

	// AppConfigFile is ~/.config/portalctl/portalctl.yaml
	AppConfigFile string

	// AppAliasesFile is ~/.config/portalctl/aliases.yaml
	AppAliasesFile string

	// AppResourcesFile is ~/.config/portalctl/resources.yaml
	AppResourcesFile string

	// AppLogFile is ~/.local/state/portalctl/portalctl.log
	AppLogFile string

	// AppSessionFile is ~/.local/state/portalctl/session.ini
	AppSessionFile string
)

// InitLocs initializes all application paths, honoring the XDG variables.
func InitLocs() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}

	return InitLocsAt(configHome, stateHome)
}

// InitLocsAt roots the application paths under the given config and state
// homes and creates the directories.
func InitLocsAt(configHome, stateHome string) error {
	AppConfigDir = filepath.Join(configHome, AppName)
	AppStateDir = filepath.Join(stateHome, AppName)

	AppConfigFile = filepath.Join(AppConfigDir, AppName+".yaml")
	AppAliasesFile = filepath.Join(AppConfigDir, "aliases.yaml")
	AppResourcesFile = filepath.Join(AppConfigDir, "resources.yaml")

	AppLogFile = filepath.Join(AppStateDir, AppName+".log")
	AppSessionFile = filepath.Join(AppStateDir, "session.ini")

	for _, dir := range []string{AppConfigDir, AppStateDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

// InitLogLoc ensures the directory of the log file exists.
func InitLogLoc(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
