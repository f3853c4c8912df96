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

import "math"

// Compute derives the summary metrics the HMC does not return directly:
// utilization percentages per managed system, LPAR state and processor
// classification breakdowns, and unassigned adapter detection.
//
// Sums stay in integer space; only the final percentage is computed in
// floating point and rounded to one decimal. A zero total yields a nil
// percentage, never a division by zero.
func Compute(systems []ManagedSystem, lpars []LogicalPartition, adapters []PhysicalAdapter) Summary {
	s := Summary{
		SystemCount:          len(systems),
		LparCount:            len(lpars),
		LparStateCounts:      make(map[string]int),
		ProcessorLabelCounts: make(map[string]int),
		AdapterCount:         len(adapters),
		UnassignedAdapters:   []string{},
		SystemUtilization:    make([]SystemUtilization, 0, len(systems)),
	}

	for _, ms := range systems {
		u := SystemUtilization{
			SystemName:     ms.Name,
			MemoryUsedMB:   ms.TotalMemoryMB - ms.AvailableMemoryMB,
			ProcessorsUsed: ms.TotalProcessors - ms.AvailableProcessors,
		}
		u.MemoryUtilizationPct = utilizationPct(u.MemoryUsedMB, ms.TotalMemoryMB)
		u.ProcessorUtilizationPct = utilizationPct(u.ProcessorsUsed, ms.TotalProcessors)
		s.SystemUtilization = append(s.SystemUtilization, u)
	}

	for _, lp := range lpars {
		state := lp.State
		if state == "" {
			state = "unknown"
		}
		s.LparStateCounts[state]++
		if lp.ProcessorLabel != "" {
			s.ProcessorLabelCounts[lp.ProcessorLabel]++
		}
	}

	for _, a := range adapters {
		if a.OwningPartitionName == "" {
			s.UnassignedAdapterCount++
			s.UnassignedAdapters = append(s.UnassignedAdapters, a.DRCName)
		} else {
			s.AssignedAdapterCount++
		}
	}

	return s
}

// utilizationPct returns used/total as a percentage rounded to one decimal,
// clamped into [0, 100]. A non-positive total yields nil.
func utilizationPct(used, total int64) *float64 {
	if total <= 0 {
		return nil
	}
	pct := math.Round(float64(used)/float64(total)*1000) / 10
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &pct
}
