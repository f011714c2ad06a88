// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/session"
)

// Default values
const (
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultView           = "users"
)

// Portal represents the portalctl global configuration.
type Portal struct {
	BaseURL        string      `yaml:"baseURL"`
	APITimeout     string      `yaml:"apiTimeout"`
	RedirectDelay  string      `yaml:"redirectDelay"`
	PageSize       int         `yaml:"pageSize"`
	SearchDebounce string      `yaml:"searchDebounce"`
	SessionDays    int         `yaml:"sessionDays"`
	RememberMe     bool        `yaml:"rememberMe"`
	DefaultView    string      `yaml:"defaultView"`
	ReadOnly       bool        `yaml:"readOnly"`
	UI             data.UI     `yaml:"ui"`
	Logger         data.Logger `yaml:"logger"`
	AWS            data.AWS    `yaml:"aws,omitempty"`

	mx sync.RWMutex
}

// NewPortal creates a Portal with default settings.
func NewPortal() *Portal {
	return &Portal{
		BaseURL:        client.DefaultBaseURL,
		APITimeout:     client.DefaultTimeout.String(),
		RedirectDelay:  client.DefaultRedirectDelay.String(),
		PageSize:       grid.DefaultPageSize,
		SearchDebounce: DefaultSearchDebounce.String(),
		SessionDays:    session.DefaultDays,
		DefaultView:    DefaultView,
		Logger:         data.Logger{Level: DefaultLogLevel},
	}
}

// Validate repairs invalid settings to their defaults.
func (p *Portal) Validate() {
	p.mx.Lock()
	defer p.mx.Unlock()

	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		p.BaseURL = client.DefaultBaseURL
	}
	p.APITimeout = validDuration(p.APITimeout, client.DefaultTimeout)
	p.RedirectDelay = validDuration(p.RedirectDelay, client.DefaultRedirectDelay)
	p.SearchDebounce = validDuration(p.SearchDebounce, DefaultSearchDebounce)
	if p.PageSize <= 0 {
		p.PageSize = grid.DefaultPageSize
	}
	if p.SessionDays <= 0 {
		p.SessionDays = session.DefaultDays
	}
	if p.DefaultView == "" {
		p.DefaultView = DefaultView
	}
	switch strings.ToLower(p.Logger.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		p.Logger.Level = DefaultLogLevel
	}
}

// Override applies CLI flag overrides to the configuration.
func (p *Portal) Override(flags *data.Flags) {
	if flags == nil {
		return
	}

	p.mx.Lock()
	defer p.mx.Unlock()

	if IsStringSet(flags.BaseURL) {
		p.BaseURL = *flags.BaseURL
	}
	if IsStringSet(flags.Timeout) {
		p.APITimeout = *flags.Timeout
	}
	if IsStringSet(flags.Command) {
		p.DefaultView = *flags.Command
	}
	if IsStringSet(flags.LogLevel) {
		p.Logger.Level = *flags.LogLevel
	}
	if IsStringSet(flags.LogFile) {
		p.Logger.File = *flags.LogFile
	}
	if IsBoolSet(flags.Headless) {
		p.UI.Headless = true
	}
	if IsBoolSet(flags.Remember) {
		p.RememberMe = true
	}
	if IsBoolSet(flags.ReadOnly) {
		p.ReadOnly = true
	}
	// Write flag overrides ReadOnly
	if IsBoolSet(flags.Write) {
		p.ReadOnly = false
	}
	if IsStringSet(flags.AWSProfile) {
		p.AWS.Profile = *flags.AWSProfile
	}
	if IsStringSet(flags.AWSRegion) {
		p.AWS.Region = *flags.AWSRegion
	}
}

// IsReadOnly reports whether mutations are disabled.
func (p *Portal) IsReadOnly() bool {
	p.mx.RLock()
	defer p.mx.RUnlock()
	return p.ReadOnly
}

// GetAPITimeout returns the parsed API timeout duration.
func (p *Portal) GetAPITimeout() (time.Duration, error) {
	p.mx.RLock()
	defer p.mx.RUnlock()
	return parseDuration("API timeout", p.APITimeout)
}

// GetRedirectDelay returns the pause before the session expiry redirect.
func (p *Portal) GetRedirectDelay() (time.Duration, error) {
	p.mx.RLock()
	defer p.mx.RUnlock()
	return parseDuration("redirect delay", p.RedirectDelay)
}

// GetSearchDebounce returns the quiet period before a search is sent.
func (p *Portal) GetSearchDebounce() (time.Duration, error) {
	p.mx.RLock()
	defer p.mx.RUnlock()
	return parseDuration("search debounce", p.SearchDebounce)
}

// ClientConfig assembles the Request Orchestrator settings.
func (p *Portal) ClientConfig(log *slog.Logger) (client.Config, error) {
	timeout, err := p.GetAPITimeout()
	if err != nil {
		return client.Config{}, err
	}
	delay, err := p.GetRedirectDelay()
	if err != nil {
		return client.Config{}, err
	}

	p.mx.RLock()
	defer p.mx.RUnlock()

	return client.Config{
		BaseURL:       p.BaseURL,
		Timeout:       timeout,
		RedirectDelay: delay,
		Logger:        log,
	}, nil
}

// SessionPolicy returns the persistence policy of a new sign-in.
func (p *Portal) SessionPolicy() session.Policy {
	p.mx.RLock()
	defer p.mx.RUnlock()

	if p.RememberMe {
		return session.Remember(p.SessionDays)
	}
	return session.Transient()
}

func parseDuration(what, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return d, nil
}

func validDuration(s string, def time.Duration) string {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d.String()
	}
	return def.String()
}
