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
	"fmt"
	"strconv"
	"strings"

	"github.com/powerfleet/hmcreport/extract"
)

// ManagedSystemsFrom builds typed managed system records from extracted field
// mappings. Invariant violations (available exceeding total) are tolerated
// and returned as warnings, never as errors.
func ManagedSystemsFrom(records []extract.Record) ([]ManagedSystem, []string) {
	var warnings []string
	systems := make([]ManagedSystem, 0, len(records))

	for _, rec := range records {
		ms := ManagedSystem{
			Name:                   rec["name"],
			SerialNumber:           rec["serial_number"],
			MachineTypeModelSerial: composeMTMS(rec),
			State:                  rec["state"],
			FirmwareLevel:          rec["firmware_level"],
			Description:            rec["description"],
			TotalMemoryMB:          parseInt(rec["total_memory_mb"]),
			AvailableMemoryMB:      parseInt(rec["available_memory_mb"]),
			TotalProcessors:        parseInt(rec["total_processors"]),
			AvailableProcessors:    parseInt(rec["available_processors"]),
		}

		if ms.AvailableMemoryMB > ms.TotalMemoryMB {
			warnings = append(warnings, fmt.Sprintf(
				"managed system %q reports available memory %d MB above total %d MB",
				ms.Name, ms.AvailableMemoryMB, ms.TotalMemoryMB))
		}
		if ms.AvailableProcessors > ms.TotalProcessors {
			warnings = append(warnings, fmt.Sprintf(
				"managed system %q reports available processors %d above total %d",
				ms.Name, ms.AvailableProcessors, ms.TotalProcessors))
		}

		systems = append(systems, ms)
	}

	return systems, warnings
}

// LogicalPartitionsFrom builds typed LPAR records. The min/current/max
// ordering invariant is checked only when all three values are present, and
// violations are flagged as warnings.
func LogicalPartitionsFrom(records []extract.Record) ([]LogicalPartition, []string) {
	var warnings []string
	lpars := make([]LogicalPartition, 0, len(records))

	for _, rec := range records {
		mode := normalizeProcessorMode(rec["processor_mode"])
		sharing := normalizeProcessorSharing(rec["processor_sharing"])

		lp := LogicalPartition{
			Name:                  rec["name"],
			PartitionID:           parseInt(rec["partition_id"]),
			SerialNumber:          rec["serial_number"],
			Description:           rec["description"],
			State:                 rec["state"],
			OSVersion:             rec["os_version"],
			MemoryMB:              parseInt(rec["memory_mb"]),
			MinMemoryMB:           parseInt(rec["min_memory_mb"]),
			MaxMemoryMB:           parseInt(rec["max_memory_mb"]),
			ProcessorMode:         mode,
			ProcessorSharing:      sharing,
			ProcessorLabel:        processorLabel(mode, sharing),
			ProcessorUnitsCurrent: rec["processor_units_current"],
			ProcessorUnitsMin:     rec["processor_units_min"],
			ProcessorUnitsMax:     rec["processor_units_max"],
			OwningSystemName:      rec["owning_system_name"],
		}

		if allPresent(rec, "min_memory_mb", "memory_mb", "max_memory_mb") {
			if lp.MemoryMB < lp.MinMemoryMB || lp.MemoryMB > lp.MaxMemoryMB {
				warnings = append(warnings, fmt.Sprintf(
					"lpar %q memory %d MB outside its configured range [%d, %d]",
					lp.Name, lp.MemoryMB, lp.MinMemoryMB, lp.MaxMemoryMB))
			}
		}
		if allPresent(rec, "processor_units_min", "processor_units_current", "processor_units_max") {
			cur, errCur := strconv.ParseFloat(lp.ProcessorUnitsCurrent, 64)
			min, errMin := strconv.ParseFloat(lp.ProcessorUnitsMin, 64)
			max, errMax := strconv.ParseFloat(lp.ProcessorUnitsMax, 64)
			if errCur == nil && errMin == nil && errMax == nil && (cur < min || cur > max) {
				warnings = append(warnings, fmt.Sprintf(
					"lpar %q processor units %s outside its configured range [%s, %s]",
					lp.Name, lp.ProcessorUnitsCurrent, lp.ProcessorUnitsMin, lp.ProcessorUnitsMax))
			}
		}

		lpars = append(lpars, lp)
	}

	return lpars, warnings
}

// PhysicalAdaptersFrom builds typed adapter records. An adapter type absent
// from the source (the CLI listing carries none) is classified from the
// description text.
func PhysicalAdaptersFrom(records []extract.Record) []PhysicalAdapter {
	adapters := make([]PhysicalAdapter, 0, len(records))

	for _, rec := range records {
		adapterType := rec["adapter_type"]
		if adapterType == "" {
			adapterType = classifyAdapter(rec["description"])
		}

		adapters = append(adapters, PhysicalAdapter{
			DRCName:             rec["drc_name"],
			AdapterType:         adapterType,
			PhysicalLocation:    rec["physical_location"],
			Description:         rec["description"],
			OwningPartitionName: rec["owning_partition_name"],
			OwningSystemName:    rec["owning_system_name"],
		})
	}

	return adapters
}

// processorLabel combines mode and sharing into the human-readable
// classification used in reports. Sharing is not meaningful on dedicated
// partitions and is ignored there.
func processorLabel(mode, sharing string) string {
	switch mode {
	case "dedicated":
		return "Dedicated"
	case "shared":
		switch sharing {
		case "capped":
			return "Shared-Capped"
		case "uncapped":
			return "Shared-Uncapped"
		default:
			return "Shared"
		}
	default:
		return ""
	}
}

func normalizeProcessorMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "dedicated", "ded":
		return "dedicated"
	case "shared", "share":
		return "shared"
	case "":
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(mode))
	}
}

func normalizeProcessorSharing(sharing string) string {
	s := strings.ToLower(strings.TrimSpace(sharing))
	switch {
	case strings.Contains(s, "uncap"):
		return "uncapped"
	case strings.Contains(s, "cap"):
		return "capped"
	default:
		return s
	}
}

// classifyAdapter buckets an adapter into a coarse type from its description.
func classifyAdapter(description string) string {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "ethernet") || strings.Contains(d, "gbe"):
		return "Ethernet"
	case strings.Contains(d, "fibre") || strings.Contains(d, "fiber") || strings.Contains(d, "fc "):
		return "Fibre Channel"
	case strings.Contains(d, "sas"):
		return "SAS"
	case strings.Contains(d, "infiniband"):
		return "InfiniBand"
	case description == "":
		return ""
	default:
		return "Other"
	}
}

// composeMTMS assembles the machine type/model/serial identifier. The REST
// feed carries type and model separately, the CLI listing pre-joins them.
func composeMTMS(rec extract.Record) string {
	serial := rec["serial_number"]
	if tm := rec["type_model"]; tm != "" {
		return tm + "*" + serial
	}
	if rec["machine_type"] != "" && rec["model"] != "" {
		return rec["machine_type"] + "-" + rec["model"] + "*" + serial
	}
	return ""
}

// parseInt reads a non-negative integer field, tolerating empty or malformed
// values as zero. Extraction already flags structurally broken records; a
// stray unparsable number must not sink the record here.
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func allPresent(rec extract.Record, fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(rec[f]) == "" {
			return false
		}
	}
	return true
}
