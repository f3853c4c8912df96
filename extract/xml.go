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

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// restTags maps normalized field names onto the XML element names the HMC
// uses in its UOM feeds, per resource kind. Matching is tolerant: namespace
// prefixes and element attributes are ignored, and a missing element leaves
// the field absent rather than failing the entry.
var restTags = map[Kind]map[string]string{
	ManagedSystems: {
		"name":                 "SystemName",
		"serial_number":        "SerialNumber",
		"machine_type":         "MachineType",
		"model":                "Model",
		"state":                "State",
		"firmware_level":       "SystemFirmware",
		"description":          "Description",
		"total_memory_mb":      "InstalledSystemMemory",
		"available_memory_mb":  "CurrentAvailableSystemMemory",
		"total_processors":     "InstalledSystemProcessorUnits",
		"available_processors": "CurrentAvailableSystemProcessorUnits",
	},
	LogicalPartitions: {
		"name":                    "PartitionName",
		"partition_id":            "PartitionID",
		"serial_number":           "SerialNumber",
		"description":             "Description",
		"state":                   "PartitionState",
		"os_version":              "OperatingSystemVersion",
		"memory_mb":               "CurrentMemory",
		"min_memory_mb":           "MinimumMemory",
		"max_memory_mb":           "MaximumMemory",
		"processor_mode":          "ProcessorMode",
		"processor_sharing":       "SharingMode",
		"processor_units_current": "CurrentProcessingUnits",
		"processor_units_min":     "MinimumProcessingUnits",
		"processor_units_max":     "MaximumProcessingUnits",
		"owning_system_name":      "AssociatedManagedSystem",
	},
	IOAdapters: {
		"drc_name":              "DynamicReconfigurationConnectorName",
		"adapter_type":          "AdapterType",
		"physical_location":     "PhysicalLocation",
		"description":           "Description",
		"owning_partition_name": "OwningPartitionName",
		"owning_system_name":    "AssociatedManagedSystem",
	},
}

var (
	entryPattern = regexp.MustCompile(`(?s)<entry(?:\s[^>]*)?>(.*?)</entry>`)
	feedPattern  = regexp.MustCompile(`<(?:[A-Za-z0-9._-]+:)?feed(?:\s[^>]*)?/?>`)

	// one matcher per (kind, field), compiled once
	tagPatterns = func() map[Kind]map[string]*regexp.Regexp {
		m := make(map[Kind]map[string]*regexp.Regexp, len(restTags))
		for kind, fields := range restTags {
			m[kind] = make(map[string]*regexp.Regexp, len(fields))
			for field, tag := range fields {
				m[kind][field] = regexp.MustCompile(
					`(?s)<(?:[A-Za-z0-9._-]+:)?` + tag + `(?:\s[^>]*)?>(.*?)</(?:[A-Za-z0-9._-]+:)?` + tag + `>`)
			}
		}
		return m
	}()
)

// FromXML extracts records of one kind from an HMC REST feed. Each <entry>
// element is one candidate record; entries that yield no key field are
// counted as skipped. A response with no entry elements at all is treated as
// empty, not as an error, since the HMC answers 204/empty feeds for kinds it
// has nothing of.
func FromXML(kind Kind, raw []byte) (Result, error) {
	res := Result{Kind: kind}

	fields, ok := restTags[kind]
	if !ok {
		return res, &ExtractionError{Kind: kind, Err: errUnknownKind}
	}

	doc := string(raw)
	if strings.TrimSpace(doc) == "" {
		return res, nil
	}
	if !strings.Contains(doc, "<") {
		return res, &ExtractionError{Kind: kind, Err: fmt.Errorf("response is not XML")}
	}

	entries := entryPattern.FindAllStringSubmatch(doc, -1)
	if entries == nil {
		// a feed envelope with zero entries is an empty result, not a
		// malformed record
		if feedPattern.MatchString(doc) {
			return res, nil
		}
		// single-object responses carry the resource element without an
		// Atom envelope
		entries = [][]string{{doc, doc}}
	}

	for _, entry := range entries {
		rec := make(Record, len(fields))
		for field := range fields {
			if m := tagPatterns[kind][field].FindStringSubmatch(entry[1]); m != nil {
				rec[field] = html.UnescapeString(strings.TrimSpace(m[1]))
			}
		}
		if rec[keyField[kind]] == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}
