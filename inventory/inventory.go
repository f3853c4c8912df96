/*
 * Copyright 2025 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package inventory loads the list of HMCs to collect from, plus the per-run
// feature flags selecting resource kinds and output formats.
package inventory

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeREST = "rest"
	ModeCLI  = "cli"

	defaultRESTPort = 12443
	defaultCLIPort  = 22
)

// HMC is one Hardware Management Console to collect from.
type HMC struct {
	Name              string        `yaml:"name"`
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Mode              string        `yaml:"mode"`
	ValidateCerts     *bool         `yaml:"validate_certs"`
	Timeout           time.Duration `yaml:"timeout"`
	CredentialProfile string        `yaml:"credential_profile"`
}

// Collect selects which resource kinds are fetched. Absent keys default to
// true so a minimal inventory collects everything.
type Collect struct {
	ManagedSystems *bool `yaml:"managed_systems"`
	Lpars          *bool `yaml:"lpars"`
	Adapters       *bool `yaml:"adapters"`
}

// File is the parsed inventory document.
type File struct {
	HMCs    []HMC    `yaml:"hmcs"`
	Collect Collect  `yaml:"collect"`
	Formats []string `yaml:"formats"`
}

// Load reads and validates an inventory file, applying mode-specific port
// defaults.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading inventory file %s - %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("error parsing inventory file %s - %w", path, err)
	}

	if len(f.HMCs) == 0 {
		return nil, fmt.Errorf("inventory file %s lists no hmcs", path)
	}

	seen := make(map[string]bool, len(f.HMCs))
	for i := range f.HMCs {
		h := &f.HMCs[i]
		if h.Name == "" {
			return nil, fmt.Errorf("inventory entry %d has no name", i)
		}
		if seen[h.Name] {
			return nil, fmt.Errorf("duplicate inventory entry %q", h.Name)
		}
		seen[h.Name] = true

		if h.Host == "" {
			h.Host = h.Name
		}
		if h.Mode == "" {
			h.Mode = ModeREST
		}
		if h.Mode != ModeREST && h.Mode != ModeCLI {
			return nil, fmt.Errorf("inventory entry %q has unknown mode %q", h.Name, h.Mode)
		}
		if h.Port == 0 {
			if h.Mode == ModeCLI {
				h.Port = defaultCLIPort
			} else {
				h.Port = defaultRESTPort
			}
		}
	}

	for _, format := range f.Formats {
		switch format {
		case "json", "csv", "yaml", "html":
		default:
			return nil, fmt.Errorf("inventory file %s lists unknown format %q", path, format)
		}
	}

	return &f, nil
}

// CollectManagedSystems reports whether managed systems should be fetched.
func (f *File) CollectManagedSystems() bool { return boolDefault(f.Collect.ManagedSystems, true) }

// CollectLpars reports whether logical partitions should be fetched.
func (f *File) CollectLpars() bool { return boolDefault(f.Collect.Lpars, true) }

// CollectAdapters reports whether I/O adapters should be fetched.
func (f *File) CollectAdapters() bool { return boolDefault(f.Collect.Adapters, true) }

// ValidateCertsOrDefault resolves the per-entry TLS setting, defaulting to
// verification on.
func (h *HMC) ValidateCertsOrDefault() bool { return boolDefault(h.ValidateCerts, true) }

func boolDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
