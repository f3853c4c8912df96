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

// Package report holds the normalized infrastructure record model, the
// derived-metrics calculator, and the report assembler.
//
// Entities are immutable once constructed and reference each other by natural
// key only (LPAR -> managed system by name, adapter -> LPAR by name); the HMC
// supplies no stable surrogate IDs, so lookups go through keyed maps built
// per run, never live pointers.
package report

// ManagedSystem is one physical server under HMC management.
type ManagedSystem struct {
	Name                   string `json:"name" yaml:"name"`
	SerialNumber           string `json:"serial_number" yaml:"serial_number"`
	MachineTypeModelSerial string `json:"machine_type_model_serial" yaml:"machine_type_model_serial"`
	State                  string `json:"state" yaml:"state"`
	FirmwareLevel          string `json:"firmware_level" yaml:"firmware_level"`
	Description            string `json:"description" yaml:"description"`
	TotalMemoryMB          int64  `json:"total_memory_mb" yaml:"total_memory_mb"`
	AvailableMemoryMB      int64  `json:"available_memory_mb" yaml:"available_memory_mb"`
	TotalProcessors        int64  `json:"total_processors" yaml:"total_processors"`
	AvailableProcessors    int64  `json:"available_processors" yaml:"available_processors"`
}

// LogicalPartition is one LPAR hosted on a managed system. Processor units
// are fractional on shared-processor partitions; the HMC's decimal strings
// are preserved verbatim rather than renormalized.
type LogicalPartition struct {
	Name                  string `json:"name" yaml:"name"`
	PartitionID           int64  `json:"partition_id" yaml:"partition_id"`
	SerialNumber          string `json:"serial_number" yaml:"serial_number"`
	Description           string `json:"description" yaml:"description"`
	State                 string `json:"state" yaml:"state"`
	OSVersion             string `json:"os_version" yaml:"os_version"`
	MemoryMB              int64  `json:"memory_mb" yaml:"memory_mb"`
	MinMemoryMB           int64  `json:"min_memory_mb" yaml:"min_memory_mb"`
	MaxMemoryMB           int64  `json:"max_memory_mb" yaml:"max_memory_mb"`
	ProcessorMode         string `json:"processor_mode" yaml:"processor_mode"`
	ProcessorSharing      string `json:"processor_sharing" yaml:"processor_sharing"`
	ProcessorLabel        string `json:"processor_label" yaml:"processor_label"`
	ProcessorUnitsCurrent string `json:"processor_units_current" yaml:"processor_units_current"`
	ProcessorUnitsMin     string `json:"processor_units_min" yaml:"processor_units_min"`
	ProcessorUnitsMax     string `json:"processor_units_max" yaml:"processor_units_max"`
	OwningSystemName      string `json:"owning_system_name" yaml:"owning_system_name"`
}

// PhysicalAdapter is one I/O adapter slot. An empty OwningPartitionName
// marks an unassigned adapter, which is an expected, reportable state.
type PhysicalAdapter struct {
	DRCName             string `json:"drc_name" yaml:"drc_name"`
	AdapterType         string `json:"adapter_type" yaml:"adapter_type"`
	PhysicalLocation    string `json:"physical_location" yaml:"physical_location"`
	Description         string `json:"description" yaml:"description"`
	OwningPartitionName string `json:"owning_partition_name" yaml:"owning_partition_name"`
	OwningSystemName    string `json:"owning_system_name" yaml:"owning_system_name"`
}

// SystemUtilization carries the derived memory/processor usage figures for
// one managed system. Percentages are nil when the corresponding total is
// zero.
type SystemUtilization struct {
	SystemName              string   `json:"system_name" yaml:"system_name"`
	MemoryUsedMB            int64    `json:"memory_used_mb" yaml:"memory_used_mb"`
	MemoryUtilizationPct    *float64 `json:"memory_utilization_pct" yaml:"memory_utilization_pct"`
	ProcessorsUsed          int64    `json:"processors_used" yaml:"processors_used"`
	ProcessorUtilizationPct *float64 `json:"processor_utilization_pct" yaml:"processor_utilization_pct"`
}

// Summary aggregates counts and derived metrics across the whole report.
type Summary struct {
	SystemCount            int                 `json:"system_count" yaml:"system_count"`
	LparCount              int                 `json:"lpar_count" yaml:"lpar_count"`
	LparStateCounts        map[string]int      `json:"lpar_state_counts" yaml:"lpar_state_counts"`
	ProcessorLabelCounts   map[string]int      `json:"processor_label_counts" yaml:"processor_label_counts"`
	AdapterCount           int                 `json:"adapter_count" yaml:"adapter_count"`
	AssignedAdapterCount   int                 `json:"assigned_adapter_count" yaml:"assigned_adapter_count"`
	UnassignedAdapterCount int                 `json:"unassigned_adapter_count" yaml:"unassigned_adapter_count"`
	UnassignedAdapters     []string            `json:"unassigned_adapters" yaml:"unassigned_adapters"`
	SystemUtilization      []SystemUtilization `json:"system_utilization" yaml:"system_utilization"`
}

// Report is the aggregate root: everything collected from one HMC at one
// point in time. It is treated as frozen once handed to the renderers.
type Report struct {
	HMCIdentifier       string             `json:"hmc_identifier" yaml:"hmc_identifier"`
	CollectionTimestamp string             `json:"collection_timestamp" yaml:"collection_timestamp"`
	ManagedSystems      []ManagedSystem    `json:"managed_systems" yaml:"managed_systems"`
	Lpars               []LogicalPartition `json:"lpars" yaml:"lpars"`
	Adapters            []PhysicalAdapter  `json:"adapters" yaml:"adapters"`
	Summary             Summary            `json:"summary" yaml:"summary"`
	SkippedRecords      map[string]int     `json:"skipped_records" yaml:"skipped_records"`
	IntegrityWarnings   []string           `json:"integrity_warnings" yaml:"integrity_warnings"`
}
