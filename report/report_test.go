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

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerfleet/hmcreport/extract"
)

func Test_Compute_Utilization(t *testing.T) {
	systems := []ManagedSystem{
		{Name: "p950-prod-01", TotalMemoryMB: 65536, AvailableMemoryMB: 16384, TotalProcessors: 24, AvailableProcessors: 6},
		{Name: "p950-prod-02"},
	}

	s := Compute(systems, nil, nil)
	require.Len(t, s.SystemUtilization, 2)

	first := s.SystemUtilization[0]
	assert.Equal(t, int64(49152), first.MemoryUsedMB)
	require.NotNil(t, first.MemoryUtilizationPct)
	assert.Equal(t, 75.0, *first.MemoryUtilizationPct)
	require.NotNil(t, first.ProcessorUtilizationPct)
	assert.Equal(t, 75.0, *first.ProcessorUtilizationPct)

	// a system reporting zero totals gets nil percentages, not a division
	// by zero or a fake 0%
	second := s.SystemUtilization[1]
	assert.Nil(t, second.MemoryUtilizationPct)
	assert.Nil(t, second.ProcessorUtilizationPct)
}

func Test_Compute_Rounding(t *testing.T) {
	systems := []ManagedSystem{
		{Name: "sys", TotalMemoryMB: 3, AvailableMemoryMB: 1, TotalProcessors: 3, AvailableProcessors: 2},
	}

	s := Compute(systems, nil, nil)
	require.NotNil(t, s.SystemUtilization[0].MemoryUtilizationPct)
	assert.Equal(t, 66.7, *s.SystemUtilization[0].MemoryUtilizationPct)
	assert.Equal(t, 33.3, *s.SystemUtilization[0].ProcessorUtilizationPct)
}

func Test_Compute_LparBreakdowns(t *testing.T) {
	lpars := []LogicalPartition{
		{Name: "lpar1", State: "running", ProcessorLabel: "Shared-Uncapped"},
		{Name: "lpar2", State: "running", ProcessorLabel: "Dedicated"},
		{Name: "lpar3", State: "not activated", ProcessorLabel: "Shared-Uncapped"},
		{Name: "lpar4"},
	}

	s := Compute(nil, lpars, nil)
	assert.Equal(t, 4, s.LparCount)
	assert.Equal(t, 2, s.LparStateCounts["running"])
	assert.Equal(t, 1, s.LparStateCounts["not activated"])
	assert.Equal(t, 1, s.LparStateCounts["unknown"])
	assert.Equal(t, 2, s.ProcessorLabelCounts["Shared-Uncapped"])
	assert.Equal(t, 1, s.ProcessorLabelCounts["Dedicated"])
}

func Test_Compute_UnassignedAdapters(t *testing.T) {
	adapters := []PhysicalAdapter{
		{DRCName: "C2", OwningPartitionName: "lpar1"},
		{DRCName: "C3"},
		{DRCName: "C4"},
	}

	s := Compute(nil, nil, adapters)
	assert.Equal(t, 3, s.AdapterCount)
	assert.Equal(t, 1, s.AssignedAdapterCount)
	assert.Equal(t, 2, s.UnassignedAdapterCount)
	assert.Equal(t, []string{"C3", "C4"}, s.UnassignedAdapters)
}

func Test_LogicalPartitionsFrom_Labels(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		sharing string
		want    string
	}{
		{"dedicated", "ded", "", "Dedicated"},
		{"shared capped", "shared", "cap", "Shared-Capped"},
		{"shared uncapped", "shared", "uncapped", "Shared-Uncapped"},
		{"shared unspecified", "shared", "", "Shared"},
		{"unknown mode", "", "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lpars, _ := LogicalPartitionsFrom([]extract.Record{{
				"name":              "lpar1",
				"processor_mode":    test.mode,
				"processor_sharing": test.sharing,
			}})
			require.Len(t, lpars, 1)
			assert.Equal(t, test.want, lpars[0].ProcessorLabel)
		})
	}
}

func Test_LogicalPartitionsFrom_RangeWarnings(t *testing.T) {
	lpars, warnings := LogicalPartitionsFrom([]extract.Record{
		{
			"name":          "cramped",
			"memory_mb":     "2048",
			"min_memory_mb": "4096",
			"max_memory_mb": "16384",
		},
		{
			"name":                    "hot",
			"processor_units_current": "4.5",
			"processor_units_min":     "0.5",
			"processor_units_max":     "4.0",
		},
		{
			// missing min/max must not trigger the range check
			"name":      "partial",
			"memory_mb": "8192",
		},
	})

	require.Len(t, lpars, 3)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "cramped")
	assert.Contains(t, warnings[1], "hot")

	// verbatim decimal strings survive conversion
	assert.Equal(t, "4.5", lpars[1].ProcessorUnitsCurrent)
}

func Test_ManagedSystemsFrom_MTMS(t *testing.T) {
	rest, warnings := ManagedSystemsFrom([]extract.Record{{
		"name":                "p1",
		"serial_number":       "06AB123",
		"machine_type":        "9009",
		"model":               "42A",
		"total_memory_mb":     "65536",
		"available_memory_mb": "131072",
	}})
	require.Len(t, rest, 1)
	assert.Equal(t, "9009-42A*06AB123", rest[0].MachineTypeModelSerial)
	// available above total is reported, not rejected
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "available memory")

	cli, _ := ManagedSystemsFrom([]extract.Record{{
		"name":          "p1",
		"serial_number": "06AB123",
		"type_model":    "9009-42A",
	}})
	require.Len(t, cli, 1)
	assert.Equal(t, "9009-42A*06AB123", cli[0].MachineTypeModelSerial)
}

func Test_PhysicalAdaptersFrom_Classification(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"PCIe2 4-port 1GbE Adapter", "Ethernet"},
		{"PCIe3 16Gb 2-port Fibre Channel Adapter", "Fibre Channel"},
		{"SAS RAID Controller", "SAS"},
		{"Universal Serial Bus UHC Spec", "Other"},
		{"", ""},
	}

	for _, test := range tests {
		adapters := PhysicalAdaptersFrom([]extract.Record{{
			"drc_name":    "C2",
			"description": test.description,
		}})
		require.Len(t, adapters, 1)
		assert.Equal(t, test.want, adapters[0].AdapterType, test.description)
	}

	// a source-supplied type wins over classification
	adapters := PhysicalAdaptersFrom([]extract.Record{{
		"drc_name":     "C2",
		"adapter_type": "IOAdapter",
		"description":  "PCIe2 4-port 1GbE Adapter",
	}})
	assert.Equal(t, "IOAdapter", adapters[0].AdapterType)
}

func Test_Assemble_IntegrityWarnings(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	systems := []ManagedSystem{{Name: "p950-prod-01"}}
	lpars := []LogicalPartition{
		{Name: "lpar1", OwningSystemName: "p950-prod-01"},
		{Name: "lpar2", OwningSystemName: "ghost-system"},
		{Name: "lpar3"},
	}
	adapters := []PhysicalAdapter{
		{DRCName: "C2", OwningSystemName: "p950-prod-01", OwningPartitionName: "lpar1"},
		{DRCName: "C3", OwningPartitionName: "ghost-lpar"},
	}

	r := Assemble("hmc01", ts, systems, lpars, adapters, Summary{}, map[string]int{"lpars": 1}, []string{"carried"})

	assert.Equal(t, "hmc01", r.HMCIdentifier)
	assert.Equal(t, "2025-06-01T12:30:00Z", r.CollectionTimestamp)
	assert.Equal(t, 1, r.SkippedRecords["lpars"])

	// one carried warning plus two dangling references; lpar3's empty
	// owning system is not a dangle
	require.Len(t, r.IntegrityWarnings, 3)
	assert.Equal(t, "carried", r.IntegrityWarnings[0])
	assert.Contains(t, r.IntegrityWarnings[1], "ghost-system")
	assert.Contains(t, r.IntegrityWarnings[2], "ghost-lpar")
}
