// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extract

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/radiopage/internal/document"
	"gopkg.in/yaml.v3"
)

//go:embed manifests/ondemand_radio.yaml
var onDemandRadioManifest []byte

// FieldSpec declares where a page-data field lives in the upstream document
// and how loudly its absence is reported.
type FieldSpec struct {
	Name     string        `yaml:"name"`
	Path     document.Path `yaml:"path"`
	Severity Severity      `yaml:"severity"`
}

// Manifest is a versioned table of field specs.
type Manifest struct {
	Version string      `yaml:"version"`
	Fields  []FieldSpec `yaml:"fields"`
}

// Lookup returns the spec for name.
func (m Manifest) Lookup(name string) (FieldSpec, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks that every field has a unique name and a non-empty path.
func (m Manifest) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Version) == "" {
		errs = append(errs, errors.New("manifest: version is required"))
	}
	if len(m.Fields) == 0 {
		errs = append(errs, errors.New("manifest: no fields declared"))
	}
	seen := make(map[string]struct{}, len(m.Fields))
	for i, f := range m.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("manifest: field %d has no name", i))
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errs = append(errs, fmt.Errorf("manifest: duplicate field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
		if len(f.Path) == 0 {
			errs = append(errs, fmt.Errorf("manifest: field %q has an empty path", f.Name))
		}
	}
	return errors.Join(errs...)
}

// ParseManifest decodes a YAML manifest strictly and validates it.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return Manifest{}, errors.New("manifest: empty document")
		}
		return Manifest{}, fmt.Errorf("manifest: parse: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Manifest{}, errors.New("manifest: multiple documents or trailing content")
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifest reads a YAML manifest from disk.
func LoadManifest(path string) (Manifest, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return Manifest{}, fmt.Errorf("manifest: unsupported format %s (only YAML supported)", ext)
	}
	// #nosec G304 -- manifest path is provided by the operator via config
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read file: %w", err)
	}
	return ParseManifest(data)
}

// DefaultManifest returns the built-in on-demand radio manifest.
func DefaultManifest() Manifest {
	m, err := ParseManifest(onDemandRadioManifest)
	if err != nil {
		panic(fmt.Sprintf("embedded manifest is invalid: %v", err))
	}
	return m
}
