package data

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var invalidPathCharsRX = regexp.MustCompile(`[:/\\\s]+`)

// SanitizeFileName replaces path separators and blanks in name.
func SanitizeFileName(name string) string {
	return invalidPathCharsRX.ReplaceAllString(name, "-")
}

// EnsureFullPath creates the parent directories of path.
func EnsureFullPath(path string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), perm); err != nil {
		return fmt.Errorf("failed to create full path for %q: %w", path, err)
	}
	return nil
}

// SaveYAML writes v to path as YAML, creating parent directories.
func SaveYAML(path string, v any) error {
	if err := EnsureFullPath(path, 0700); err != nil {
		return err
	}

	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write YAML file %q: %w", path, err)
	}

	return nil
}

// LoadYAML decodes the YAML file at path into v. An empty file leaves v
// untouched.
func LoadYAML(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file %q: %w", path, err)
	}

	return decode(path, raw, v, false)
}

// LoadYAMLStrict is LoadYAML rejecting unknown keys.
func LoadYAMLStrict(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file %q: %w", path, err)
	}

	return decode(path, raw, v, true)
}

func decode(path string, raw []byte, v any, strict bool) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(strict)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal YAML from %q: %w", path, err)
	}

	return nil
}
