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

package inventory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInventory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_Load_Defaults(t *testing.T) {
	path := writeInventory(t, `
hmcs:
  - name: hmc01
  - name: hmc02
    host: hmc02.example.com
    mode: cli
    timeout: 30s
    validate_certs: false
    credential_profile: power
formats:
  - json
  - yml
`)
	// unknown formats are rejected up front
	f, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, f)

	path = writeInventory(t, `
hmcs:
  - name: hmc01
  - name: hmc02
    host: hmc02.example.com
    mode: cli
    timeout: 30s
    validate_certs: false
    credential_profile: power
formats:
  - json
  - yaml
`)
	f, err = Load(path)
	require.NoError(t, err)
	require.Len(t, f.HMCs, 2)

	first := f.HMCs[0]
	assert.Equal(t, "hmc01", first.Host)
	assert.Equal(t, ModeREST, first.Mode)
	assert.Equal(t, 12443, first.Port)
	assert.True(t, first.ValidateCertsOrDefault())

	second := f.HMCs[1]
	assert.Equal(t, "hmc02.example.com", second.Host)
	assert.Equal(t, ModeCLI, second.Mode)
	assert.Equal(t, 22, second.Port)
	assert.Equal(t, 30*time.Second, second.Timeout)
	assert.False(t, second.ValidateCertsOrDefault())
	assert.Equal(t, "power", second.CredentialProfile)

	// collect flags default to everything on
	assert.True(t, f.CollectManagedSystems())
	assert.True(t, f.CollectLpars())
	assert.True(t, f.CollectAdapters())
}

func Test_Load_CollectToggles(t *testing.T) {
	path := writeInventory(t, `
hmcs:
  - name: hmc01
collect:
  adapters: false
`)
	f, err := Load(path)
	require.NoError(t, err)
	assert.True(t, f.CollectManagedSystems())
	assert.True(t, f.CollectLpars())
	assert.False(t, f.CollectAdapters())
}

func Test_Load_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty hmc list", "hmcs: []\n"},
		{"missing name", "hmcs:\n  - host: somewhere\n"},
		{"duplicate name", "hmcs:\n  - name: hmc01\n  - name: hmc01\n"},
		{"unknown mode", "hmcs:\n  - name: hmc01\n    mode: telnet\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeInventory(t, test.content))
			require.Error(t, err)
		})
	}
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
