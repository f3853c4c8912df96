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
	"time"
)

// Assemble merges the per-kind record lists and the computed summary into one
// report scoped to one HMC and one point in time. Referential mismatches
// between kinds are recorded as integrity warnings on the report; a report
// with dangling references is still a valid, deliverable report.
//
// The returned report is frozen by convention: nothing mutates it once
// rendering starts.
func Assemble(hmcID string, ts time.Time, systems []ManagedSystem, lpars []LogicalPartition,
	adapters []PhysicalAdapter, summary Summary, skipped map[string]int, warnings []string) *Report {

	r := &Report{
		HMCIdentifier:       hmcID,
		CollectionTimestamp: ts.UTC().Format(time.RFC3339),
		ManagedSystems:      systems,
		Lpars:               lpars,
		Adapters:            adapters,
		Summary:             summary,
		SkippedRecords:      skipped,
		IntegrityWarnings:   append([]string{}, warnings...),
	}

	systemNames := make(map[string]bool, len(systems))
	for _, ms := range systems {
		systemNames[ms.Name] = true
	}
	lparNames := make(map[string]bool, len(lpars))
	for _, lp := range lpars {
		lparNames[lp.Name] = true
	}

	// weak references are checked only when the source supplied them; the
	// CLI listings omit the owning-system column entirely
	for _, lp := range lpars {
		if lp.OwningSystemName != "" && !systemNames[lp.OwningSystemName] {
			r.IntegrityWarnings = append(r.IntegrityWarnings, fmt.Sprintf(
				"lpar %q references unknown managed system %q", lp.Name, lp.OwningSystemName))
		}
	}
	for _, a := range adapters {
		if a.OwningSystemName != "" && !systemNames[a.OwningSystemName] {
			r.IntegrityWarnings = append(r.IntegrityWarnings, fmt.Sprintf(
				"adapter %q references unknown managed system %q", a.DRCName, a.OwningSystemName))
		}
		if a.OwningPartitionName != "" && !lparNames[a.OwningPartitionName] {
			r.IntegrityWarnings = append(r.IntegrityWarnings, fmt.Sprintf(
				"adapter %q references unknown partition %q", a.DRCName, a.OwningPartitionName))
		}
	}

	return r
}
