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

package extract

import "strings"

// cliFields lists the exact field order produced by the lssyscfg/lshwres
// invocations the CLI session runs. Order here must track the -F arguments in
// the hmc/cli package.
var cliFields = map[Kind][]string{
	ManagedSystems: {
		"name",
		"serial_number",
		"type_model",
		"state",
		"firmware_level",
	},
	LogicalPartitions: {
		"name",
		"partition_id",
		"serial_number",
		"state",
		"os_version",
		"memory_mb",
		"processor_units_current",
	},
	IOAdapters: {
		"drc_name",
		"description",
		"physical_location",
	},
}

// FromCLI extracts records of one kind from newline-delimited CLI output.
// Each line is split on commas at fixed positions; a line whose field count
// does not match the documented order is skipped and counted, never fatal.
//
// The split deliberately does not honor quoting: the HMC commands above are
// documented to emit unquoted fields, and preserving the historical
// fixed-split behavior keeps reports byte-compatible with prior tooling even
// for pathological values.
func FromCLI(kind Kind, raw []byte) (Result, error) {
	res := Result{Kind: kind}

	order, ok := cliFields[kind]
	if !ok {
		return res, &ExtractionError{Kind: kind, Err: errUnknownKind}
	}

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		values := strings.Split(line, ",")
		if len(values) != len(order) {
			res.Skipped++
			continue
		}

		rec := make(Record, len(order))
		for i, field := range order {
			rec[field] = values[i]
		}
		if rec[keyField[kind]] == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}
