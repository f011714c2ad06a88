// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. PORTAL_BASE_URL.
const EnvPrefix = "PORTAL"

// Env holds the environment overrides. Unset variables keep the file value.
type Env struct {
	BaseURL        string `envconfig:"BASE_URL"`
	APITimeout     string `envconfig:"API_TIMEOUT"`
	RedirectDelay  string `envconfig:"REDIRECT_DELAY"`
	PageSize       int    `envconfig:"PAGE_SIZE"`
	SearchDebounce string `envconfig:"SEARCH_DEBOUNCE"`
	SessionDays    int    `envconfig:"SESSION_DAYS"`
	RememberMe     *bool  `envconfig:"REMEMBER_ME"`
	DefaultView    string `envconfig:"DEFAULT_VIEW"`
	ReadOnly       *bool  `envconfig:"READ_ONLY"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFile        string `envconfig:"LOG_FILE"`
	AWSProfile     string `envconfig:"AWS_PROFILE"`
	AWSRegion      string `envconfig:"AWS_REGION"`
}

// LoadEnv reads the PORTAL_ variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}

	return e, nil
}

// ApplyEnv overlays the set environment values on p.
func (p *Portal) ApplyEnv(e Env) {
	p.mx.Lock()
	defer p.mx.Unlock()

	setString(&p.BaseURL, e.BaseURL)
	setString(&p.APITimeout, e.APITimeout)
	setString(&p.RedirectDelay, e.RedirectDelay)
	setString(&p.SearchDebounce, e.SearchDebounce)
	setString(&p.DefaultView, e.DefaultView)
	setString(&p.Logger.Level, e.LogLevel)
	setString(&p.Logger.File, e.LogFile)
	setString(&p.AWS.Profile, e.AWSProfile)
	setString(&p.AWS.Region, e.AWSRegion)
	if e.PageSize > 0 {
		p.PageSize = e.PageSize
	}
	if e.SessionDays > 0 {
		p.SessionDays = e.SessionDays
	}
	if e.RememberMe != nil {
		p.RememberMe = *e.RememberMe
	}
	if e.ReadOnly != nil {
		p.ReadOnly = *e.ReadOnly
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
