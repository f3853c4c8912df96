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
	"html/template"

	"github.com/powerfleet/hmcreport/report"
)

// every extracted string originates from an external system; html/template's
// contextual autoescaping entity-encodes them all
const reportTmpl = `<!DOCTYPE html>
<html>
  <head>
    <title>Power Infrastructure Report - {{ .HMCIdentifier }}</title>
    <style>
      body { font-family: sans-serif; margin: 2em; }
      table { border-collapse: collapse; margin-bottom: 2em; }
      th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
      th { background: #eee; }
      h2 { margin-top: 1.5em; }
      .warn { color: #a00; }
    </style>
  </head>
  <body>
    <h1>Power Infrastructure Report</h1>
    <p><b>HMC:</b> {{ .HMCIdentifier }} <b>Collected:</b> {{ .CollectionTimestamp }}</p>

    <h2>Summary</h2>
    <table>
      <tr><th>Managed Systems</th><td>{{ .Summary.SystemCount }}</td></tr>
      <tr><th>Logical Partitions</th><td>{{ .Summary.LparCount }}</td></tr>
      <tr><th>Adapters</th><td>{{ .Summary.AdapterCount }}</td></tr>
      <tr><th>Assigned Adapters</th><td>{{ .Summary.AssignedAdapterCount }}</td></tr>
      <tr><th>Unassigned Adapters</th><td>{{ .Summary.UnassignedAdapterCount }}</td></tr>
    </table>

    <h2>System Utilization</h2>
    <table>
      <tr><th>System</th><th>Memory Used (MB)</th><th>Memory %</th><th>Processors Used</th><th>Processor %</th></tr>
      {{ range .Summary.SystemUtilization }}
      <tr>
        <td>{{ .SystemName }}</td>
        <td>{{ .MemoryUsedMB }}</td>
        <td>{{ if .MemoryUtilizationPct }}{{ .MemoryUtilizationPct }}{{ else }}n/a{{ end }}</td>
        <td>{{ .ProcessorsUsed }}</td>
        <td>{{ if .ProcessorUtilizationPct }}{{ .ProcessorUtilizationPct }}{{ else }}n/a{{ end }}</td>
      </tr>
      {{ end }}
    </table>

    <h2>Managed Systems</h2>
    <table>
      <tr><th>Name</th><th>Serial</th><th>MTMS</th><th>State</th><th>Firmware</th><th>Description</th><th>Total Mem (MB)</th><th>Avail Mem (MB)</th><th>Total Procs</th><th>Avail Procs</th></tr>
      {{ range .ManagedSystems }}
      <tr>
        <td>{{ .Name }}</td><td>{{ .SerialNumber }}</td><td>{{ .MachineTypeModelSerial }}</td>
        <td>{{ .State }}</td><td>{{ .FirmwareLevel }}</td><td>{{ .Description }}</td>
        <td>{{ .TotalMemoryMB }}</td><td>{{ .AvailableMemoryMB }}</td>
        <td>{{ .TotalProcessors }}</td><td>{{ .AvailableProcessors }}</td>
      </tr>
      {{ end }}
    </table>

    <h2>Logical Partitions</h2>
    <table>
      <tr><th>Name</th><th>ID</th><th>State</th><th>OS</th><th>Memory (MB)</th><th>Processors</th><th>Units</th><th>System</th></tr>
      {{ range .Lpars }}
      <tr>
        <td>{{ .Name }}</td><td>{{ .PartitionID }}</td><td>{{ .State }}</td>
        <td>{{ .OSVersion }}</td><td>{{ .MemoryMB }}</td>
        <td>{{ .ProcessorLabel }}</td><td>{{ .ProcessorUnitsCurrent }}</td>
        <td>{{ .OwningSystemName }}</td>
      </tr>
      {{ end }}
    </table>

    <h2>I/O Adapters</h2>
    <table>
      <tr><th>DRC Name</th><th>Type</th><th>Location</th><th>Description</th><th>Partition</th><th>System</th></tr>
      {{ range .Adapters }}
      <tr>
        <td>{{ .DRCName }}</td><td>{{ .AdapterType }}</td><td>{{ .PhysicalLocation }}</td>
        <td>{{ .Description }}</td><td>{{ .OwningPartitionName }}</td><td>{{ .OwningSystemName }}</td>
      </tr>
      {{ end }}
    </table>

    {{ if .IntegrityWarnings }}
    <h2>Integrity Warnings</h2>
    <ul>
      {{ range .IntegrityWarnings }}<li class="warn">{{ . }}</li>{{ end }}
    </ul>
    {{ end }}
  </body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Parse(reportTmpl))

func renderHTML(r *report.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
