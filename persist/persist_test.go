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

package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerfleet/hmcreport/render"
)

func Test_Filename(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 5, 0, time.UTC)

	tests := []struct {
		name   string
		hmcID  string
		cli    bool
		format render.Format
		want   string
	}{
		{"rest json", "hmc01", false, render.JSON, "power_infrastructure_hmc01_2025-06-01_12-30-05.json"},
		{"rest yaml uses yml", "hmc01", false, render.YAML, "power_infrastructure_hmc01_2025-06-01_12-30-05.yml"},
		{"cli csv", "hmc02", true, render.CSV, "power_infrastructure_cli_hmc02_2025-06-01_12-30-05.csv"},
		{"cli html", "hmc02", true, render.HTML, "power_infrastructure_cli_hmc02_2025-06-01_12-30-05.html"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Filename(test.hmcID, test.cli, ts, test.format))
		})
	}
}

type fakeDest struct {
	name   string
	err    error
	stored []Artifact
}

func (f *fakeDest) Name() string { return f.name }

func (f *fakeDest) Store(_ context.Context, a Artifact) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, a)
	return nil
}

func Test_Dispatcher_PartialFailureIsNotFatal(t *testing.T) {
	broken := &fakeDest{name: "s3", err: errors.New("bucket gone")}
	healthy := &fakeDest{name: "local"}

	d := NewDispatcher(broken, healthy)
	err := d.Store(context.Background(), Artifact{HMCIdentifier: "hmc01", Filename: "report.json"})

	require.NoError(t, err)
	require.Len(t, healthy.stored, 1)
	assert.Equal(t, "report.json", healthy.stored[0].Filename)
}

func Test_Dispatcher_AllFailuresFail(t *testing.T) {
	d := NewDispatcher(
		&fakeDest{name: "s3", err: errors.New("bucket gone")},
		&fakeDest{name: "git", err: errors.New("repo locked")},
	)

	err := d.Store(context.Background(), Artifact{Filename: "report.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all destinations failed")
	assert.Contains(t, err.Error(), "s3")
	assert.Contains(t, err.Error(), "git")
}

func Test_Dispatcher_SkipIsNotSuccess(t *testing.T) {
	// a destination that declines the format must not count as a store
	skipping := &fakeDest{name: "aap", err: ErrSkipped}

	err := NewDispatcher(skipping).Store(context.Background(), Artifact{Filename: "report.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no destination accepted report.csv")

	// alongside a real store the skip is harmless
	healthy := &fakeDest{name: "local"}
	err = NewDispatcher(skipping, healthy).Store(context.Background(), Artifact{Filename: "report.csv"})
	require.NoError(t, err)
	require.Len(t, healthy.stored, 1)

	// and a skip does not soften an actual failure
	broken := &fakeDest{name: "git", err: errors.New("repo locked")}
	err = NewDispatcher(skipping, broken).Store(context.Background(), Artifact{Filename: "report.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all destinations failed")
	assert.NotContains(t, err.Error(), "aap")
}

func Test_AAP_SkipsNonJSON(t *testing.T) {
	a := NewAAP("https://aap.example.com/api/v2/job_templates/7/launch/", "tok", false, time.Second)
	err := a.Store(context.Background(), Artifact{Filename: "report.csv", ContentType: "text/csv"})
	assert.ErrorIs(t, err, ErrSkipped)
}

func Test_Dispatcher_NoDestinations(t *testing.T) {
	d := NewDispatcher()
	err := d.Store(context.Background(), Artifact{Filename: "report.json"})
	require.Error(t, err)
}

func Test_LocalDir_Store(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	local, err := NewLocalDir(dir)
	require.NoError(t, err)

	a := Artifact{
		Filename: "power_infrastructure_hmc01_2025-06-01_12-30-05.json",
		Bytes:    []byte(`{"hmc_identifier":"hmc01"}`),
	}
	require.NoError(t, local.Store(context.Background(), a))

	got, err := os.ReadFile(filepath.Join(dir, a.Filename))
	require.NoError(t, err)
	assert.Equal(t, a.Bytes, got)
}
