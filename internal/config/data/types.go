// Package data holds the serializable configuration types of portalctl.
package data

// Flags represents the command-line flags. Nil or zero values leave the
// configuration untouched.
type Flags struct {
	BaseURL    *string // API root, e.g. https://portal.example.com/api
	Timeout    *string // API timeout as a duration
	LogLevel   *string // debug, info, warn, error
	LogFile    *string // path to the log file
	Headless   *bool   // hide the header
	Command    *string // view to open at startup
	ReadOnly   *bool   // disable every mutation
	Write      *bool   // force mutations on, beats ReadOnly
	Remember   *bool   // persist the session on login
	AWSProfile *string // shared config profile for s3:// sources
	AWSRegion  *string // region for s3:// sources
}

// UI represents user interface configuration settings.
type UI struct {
	EnableMouse bool `yaml:"enableMouse"`
	Headless    bool `yaml:"headless"`
	Crumbsless  bool `yaml:"crumbsless"`
}

// Logger represents logging configuration settings.
type Logger struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// AWS configures the optional s3:// upload sources.
type AWS struct {
	Profile string `yaml:"profile,omitempty"`
	Region  string `yaml:"region,omitempty"`
}
