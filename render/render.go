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

// Package render serializes an assembled infrastructure report into its
// deliverable formats. Failures are isolated per format: one format failing
// never blocks the others.
package render

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/powerfleet/hmcreport/report"
)

// Format is one supported output format.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	YAML Format = "yaml"
	HTML Format = "html"
)

// Formats lists every supported format in rendering order.
var Formats = []Format{JSON, CSV, YAML, HTML}

// RenderError wraps a failure of exactly one format.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return "rendering " + string(e.Format) + " failed: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }

// Ext returns the file extension used in artifact names. YAML deliverables
// historically use .yml and downstream consumers depend on it.
func Ext(f Format) string {
	if f == YAML {
		return "yml"
	}
	return string(f)
}

// ContentType returns the MIME type advertised when an artifact is uploaded.
func ContentType(f Format) string {
	switch f {
	case JSON:
		return "application/json"
	case CSV:
		return "text/csv"
	case YAML:
		return "application/yaml"
	case HTML:
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

// ParseFormats maps format names onto Format values, rejecting unknown names.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return Formats, nil
	}
	out := make([]Format, 0, len(names))
	for _, n := range names {
		switch Format(n) {
		case JSON, CSV, YAML, HTML:
			out = append(out, Format(n))
		default:
			return nil, fmt.Errorf("unknown output format %q", n)
		}
	}
	return out, nil
}

// Render serializes one report into one format.
func Render(r *report.Report, f Format) ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch f {
	case JSON:
		out, err = json.MarshalIndent(r, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case YAML:
		out, err = yaml.Marshal(r)
	case CSV:
		out, err = renderCSV(r)
	case HTML:
		out, err = renderHTML(r)
	default:
		err = fmt.Errorf("unsupported format")
	}

	if err != nil {
		return nil, &RenderError{Format: f, Err: err}
	}
	return out, nil
}

// All renders every requested format, isolating per-format failures. The
// returned error map carries one entry per failed format.
func All(r *report.Report, formats []Format) (map[Format][]byte, map[Format]error) {
	rendered := make(map[Format][]byte, len(formats))
	failed := make(map[Format]error)

	for _, f := range formats {
		out, err := Render(r, f)
		if err != nil {
			failed[f] = err
			continue
		}
		rendered[f] = out
	}

	return rendered, failed
}
