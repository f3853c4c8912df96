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

// Package extract turns raw HMC responses (REST XML feeds or CLI
// comma-separated listings) into ordered, normalized field mappings.
//
// Extraction is best-effort and partial-failure tolerant at the record level:
// one malformed entry or line never aborts the rest of the batch, it is
// counted as skipped instead.
package extract

import "errors"

var errUnknownKind = errors.New("unknown resource kind")

// Kind identifies one inventoried resource kind.
type Kind string

const (
	ManagedSystems    Kind = "managed_systems"
	LogicalPartitions Kind = "lpars"
	IOAdapters        Kind = "adapters"
)

// Record is one normalized field mapping. Fields absent from the source are
// simply absent from the map; readers treat them as empty.
type Record map[string]string

// Result is the outcome of extracting one resource kind from one response.
// Records preserve the order entries appeared in the raw response so report
// output diffs cleanly across runs.
type Result struct {
	Kind    Kind
	Records []Record
	Skipped int
}

// ExtractionError means the response as a whole could not be interpreted for
// a kind. Per-record problems never surface as errors, only as skip counts.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return "extraction of " + string(e.Kind) + " failed: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// keyField names the one field a record cannot be useful without. An entry
// that yields no value for its key field counts as malformed and is skipped.
var keyField = map[Kind]string{
	ManagedSystems:    "name",
	LogicalPartitions: "name",
	IOAdapters:        "drc_name",
}
