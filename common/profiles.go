/*
 * Copyright 2024 Comcast Cable Communications Management, LLC
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

package common

import (
	"fmt"
	"sync"

	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	hmc_vault "github.com/powerfleet/hmcreport/vault"
)

// credential profiles are parsed once at flag-parse time and read by every
// pipeline afterwards, so a plain mutex is enough.
var (
	profileMu sync.Mutex
	profiles  = make(map[string]*hmc_vault.SecretProperties)
)

type credentialProfiles struct {
	Profiles []struct {
		Name          string `yaml:"name" json:"name"`
		MountPath     string `yaml:"mountPath" json:"mountPath"`
		Path          string `yaml:"path" json:"path"`
		UserField     string `yaml:"userField" json:"userField"`
		PasswordField string `yaml:"passwordField" json:"passwordField"`
		SecretName    string `yaml:"secretName" json:"secretName"`
	} `yaml:"profiles" json:"profiles"`
}

type credProfValue struct {
	raw string
}

// Set parses the --credentials.profiles flag. The value is a YAML (or JSON,
// which is a YAML subset) document listing vault secret coordinates per
// profile name.
func (c *credProfValue) Set(value string) error {
	c.raw = value

	var parsed credentialProfiles
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		return fmt.Errorf("error parsing credential profiles - %w", err)
	}

	profileMu.Lock()
	defer profileMu.Unlock()
	for _, p := range parsed.Profiles {
		if p.Name == "" {
			return fmt.Errorf("credential profile with empty name")
		}
		profiles[p.Name] = &hmc_vault.SecretProperties{
			MountPath:     p.MountPath,
			Path:          p.Path,
			UserField:     p.UserField,
			PasswordField: p.PasswordField,
			SecretName:    p.SecretName,
		}
	}

	return nil
}

func (c *credProfValue) String() string {
	return c.raw
}

// CredentialProf tells kingpin how to parse the credential profiles flag.
func CredentialProf(s kingpin.Settings) *credProfValue {
	v := &credProfValue{}
	s.SetValue(v)
	return v
}

// GetCredentialProfile returns the vault secret coordinates for a profile
// name. An empty name selects the "default" profile when one was configured.
func GetCredentialProfile(name string) (*hmc_vault.SecretProperties, error) {
	profileMu.Lock()
	defer profileMu.Unlock()

	if name == "" {
		name = "default"
	}
	props, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown credential profile %q", name)
	}
	return props, nil
}
