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

package collector

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerfleet/hmcreport/config"
	"github.com/powerfleet/hmcreport/inventory"
	"github.com/powerfleet/hmcreport/persist"
	"github.com/powerfleet/hmcreport/render"
	"github.com/powerfleet/hmcreport/report"
)

const token = "Y2ZGVyckJHVzYkNFa3FHMVhZm9HQUxtUVo"

const managedSystemFeed = `<feed>
  <entry>
    <SystemName>p950-prod-01</SystemName>
    <SerialNumber>06AB123</SerialNumber>
    <MachineType>9009</MachineType>
    <Model>42A</Model>
    <State>operating</State>
    <InstalledSystemMemory>65536</InstalledSystemMemory>
    <CurrentAvailableSystemMemory>16384</CurrentAvailableSystemMemory>
    <InstalledSystemProcessorUnits>24</InstalledSystemProcessorUnits>
    <CurrentAvailableSystemProcessorUnits>6</CurrentAvailableSystemProcessorUnits>
  </entry>
</feed>`

const lparFeed = `<feed>
  <entry>
    <PartitionName>lpar1</PartitionName>
    <PartitionID>1</PartitionID>
    <PartitionState>running</PartitionState>
    <ProcessorMode>shared</ProcessorMode>
    <SharingMode>uncapped</SharingMode>
    <CurrentProcessingUnits>2.0</CurrentProcessingUnits>
    <AssociatedManagedSystem>p950-prod-01</AssociatedManagedSystem>
  </entry>
  <entry>
    <PartitionID>9</PartitionID>
  </entry>
</feed>`

const adapterFeed = `<feed>
  <entry>
    <DynamicReconfigurationConnectorName>U78CB.001.WZS0001-P1-C2</DynamicReconfigurationConnectorName>
    <Description>PCIe2 4-port 1GbE Adapter</Description>
    <PhysicalLocation>P1-C2</PhysicalLocation>
    <AssociatedManagedSystem>p950-prod-01</AssociatedManagedSystem>
  </entry>
</feed>`

func newFakeHMC(t *testing.T) (string, int) {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/web/Logon":
			if r.Method == http.MethodDelete {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("X-API-Session", token)
		case "/rest/api/uom/ManagedSystem":
			w.Write([]byte(managedSystemFeed))
		case "/rest/api/uom/LogicalPartition":
			w.Write([]byte(lparFeed))
		case "/rest/api/uom/IOAdapter":
			w.Write([]byte(adapterFeed))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func testConfig() {
	config.NewConfig(&config.Config{
		HMCTimeout:  10 * time.Second,
		SSLVerify:   false,
		User:        "hscroot",
		Pass:        "abc123",
		Concurrency: 2,
	})
}

func Test_CollectOne_FullPipeline(t *testing.T) {
	testConfig()
	host, port := newFakeHMC(t)
	dir := t.TempDir()

	local, err := persist.NewLocalDir(dir)
	require.NoError(t, err)
	disp := persist.NewDispatcher(local)

	inv := &inventory.File{
		HMCs: []inventory.HMC{{Name: "hmc01", Host: host, Port: port, Mode: inventory.ModeREST}},
	}

	outcome := CollectOne(context.Background(), inv.HMCs[0], inv, render.Formats, disp)
	require.NoError(t, outcome.Err)
	require.True(t, outcome.Usable())
	assert.NotEmpty(t, outcome.TraceID)

	r := outcome.Report
	require.NotNil(t, r)
	assert.Equal(t, "hmc01", r.HMCIdentifier)
	require.Len(t, r.ManagedSystems, 1)
	require.Len(t, r.Lpars, 1)
	require.Len(t, r.Adapters, 1)

	// the nameless lpar entry is skipped and counted
	assert.Equal(t, 1, r.SkippedRecords["lpars"])

	// derived metrics ride along
	require.Len(t, r.Summary.SystemUtilization, 1)
	require.NotNil(t, r.Summary.SystemUtilization[0].MemoryUtilizationPct)
	assert.Equal(t, 75.0, *r.Summary.SystemUtilization[0].MemoryUtilizationPct)
	assert.Equal(t, "Shared-Uncapped", r.Lpars[0].ProcessorLabel)
	assert.Equal(t, 1, r.Summary.UnassignedAdapterCount)

	// one artifact per format landed on disk with the canonical name
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, len(render.Formats))
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e.Name(), "power_infrastructure_hmc01_"), e.Name())
	}

	// the JSON artifact round-trips into the same report
	var fromDisk report.Report
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &fromDisk))
		}
	}
	assert.Equal(t, r.CollectionTimestamp, fromDisk.CollectionTimestamp)
	assert.Equal(t, r.Summary.SystemCount, fromDisk.Summary.SystemCount)
}

func Test_Run_IsolatesHMCFailures(t *testing.T) {
	testConfig()
	host, port := newFakeHMC(t)
	dir := t.TempDir()

	local, err := persist.NewLocalDir(dir)
	require.NoError(t, err)
	disp := persist.NewDispatcher(local)

	inv := &inventory.File{
		HMCs: []inventory.HMC{
			{Name: "hmc01", Host: host, Port: port, Mode: inventory.ModeREST},
			// nothing listens here; the dial fails fast
			{Name: "hmc02", Host: "127.0.0.1", Port: 1, Mode: inventory.ModeREST, Timeout: 3 * time.Second},
		},
	}

	summary := Run(context.Background(), inv, []render.Format{render.JSON}, disp)
	assert.Equal(t, 1, summary.Usable)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, summary.Outcomes, 2)
	assert.NoError(t, summary.Outcomes[0].Err)
	assert.Error(t, summary.Outcomes[1].Err)
}

func Test_CollectOne_SkipsDisabledKinds(t *testing.T) {
	testConfig()
	host, port := newFakeHMC(t)

	local, err := persist.NewLocalDir(t.TempDir())
	require.NoError(t, err)
	disp := persist.NewDispatcher(local)

	off := false
	inv := &inventory.File{
		HMCs:    []inventory.HMC{{Name: "hmc01", Host: host, Port: port, Mode: inventory.ModeREST}},
		Collect: inventory.Collect{Adapters: &off, Lpars: &off},
	}

	outcome := CollectOne(context.Background(), inv.HMCs[0], inv, []render.Format{render.JSON}, disp)
	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Report.ManagedSystems, 1)
	assert.Empty(t, outcome.Report.Lpars)
	assert.Empty(t, outcome.Report.Adapters)
}
