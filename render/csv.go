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

package render

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/powerfleet/hmcreport/report"
)

// column orders are fixed so repeated renders of the same report are
// byte-identical
var (
	systemColumns = []string{
		"name", "serial_number", "machine_type_model_serial", "state",
		"firmware_level", "description", "total_memory_mb",
		"available_memory_mb", "total_processors", "available_processors",
	}
	lparColumns = []string{
		"name", "partition_id", "serial_number", "state", "os_version",
		"memory_mb", "min_memory_mb", "max_memory_mb", "processor_mode",
		"processor_sharing", "processor_label", "processor_units_current",
		"processor_units_min", "processor_units_max", "owning_system_name",
		"description",
	}
	adapterColumns = []string{
		"drc_name", "adapter_type", "physical_location", "description",
		"owning_partition_name", "owning_system_name",
	}
)

// renderCSV writes the three flat record sections, each with its own header
// row. Derived summary data is structural and stays out of the CSV form by
// design; quoting and escaping follow encoding/csv.
func renderCSV(r *report.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(systemColumns); err != nil {
		return nil, err
	}
	for _, ms := range r.ManagedSystems {
		row := []string{
			ms.Name, ms.SerialNumber, ms.MachineTypeModelSerial, ms.State,
			ms.FirmwareLevel, ms.Description,
			strconv.FormatInt(ms.TotalMemoryMB, 10),
			strconv.FormatInt(ms.AvailableMemoryMB, 10),
			strconv.FormatInt(ms.TotalProcessors, 10),
			strconv.FormatInt(ms.AvailableProcessors, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	if err := w.Write(lparColumns); err != nil {
		return nil, err
	}
	for _, lp := range r.Lpars {
		row := []string{
			lp.Name, strconv.FormatInt(lp.PartitionID, 10), lp.SerialNumber,
			lp.State, lp.OSVersion,
			strconv.FormatInt(lp.MemoryMB, 10),
			strconv.FormatInt(lp.MinMemoryMB, 10),
			strconv.FormatInt(lp.MaxMemoryMB, 10),
			lp.ProcessorMode, lp.ProcessorSharing, lp.ProcessorLabel,
			lp.ProcessorUnitsCurrent, lp.ProcessorUnitsMin,
			lp.ProcessorUnitsMax, lp.OwningSystemName, lp.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	if err := w.Write(adapterColumns); err != nil {
		return nil, err
	}
	for _, a := range r.Adapters {
		row := []string{
			a.DRCName, a.AdapterType, a.PhysicalLocation, a.Description,
			a.OwningPartitionName, a.OwningSystemName,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
