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

// Package persist writes rendered report artifacts to one or more
// destinations. Destinations fail independently; a run is persisted as long
// as at least one destination accepted every artifact handed to it.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/powerfleet/hmcreport/render"
	"go.uber.org/zap"
)

// ErrSkipped signals that a destination does not handle this artifact format.
// The dispatcher counts a skip as neither a success nor a failure.
var ErrSkipped = errors.New("artifact format not handled by destination")

// Artifact is one rendered report ready to be stored.
type Artifact struct {
	HMCIdentifier string
	Filename      string
	Format        render.Format
	ContentType   string
	Bytes         []byte
}

// PersistenceError wraps a single destination failure.
type PersistenceError struct {
	Destination string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("destination %s: %s", e.Destination, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Destination stores artifacts somewhere durable.
type Destination interface {
	Name() string
	Store(ctx context.Context, a Artifact) error
}

// Filename builds the canonical artifact name for one report. Timestamps are
// wall-clock local time, second precision; consumers sort on the embedded
// stamp so the layout must not change.
func Filename(hmcID string, cli bool, ts time.Time, format render.Format) string {
	prefix := "power_infrastructure"
	if cli {
		prefix = "power_infrastructure_cli"
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, hmcID, ts.Format("2006-01-02_15-04-05"), render.Ext(format))
}

// Dispatcher fans each artifact out to every configured destination.
type Dispatcher struct {
	dests []Destination
}

func NewDispatcher(dests ...Destination) *Dispatcher {
	return &Dispatcher{dests: dests}
}

func (d *Dispatcher) Destinations() int { return len(d.dests) }

// Store hands the artifact to every destination. It returns nil when at
// least one destination actually stored it; destinations that return
// ErrSkipped are counted as neither stored nor failed. An aggregate error
// comes back only when nothing stored the artifact.
func (d *Dispatcher) Store(ctx context.Context, a Artifact) error {
	if len(d.dests) == 0 {
		return fmt.Errorf("no destinations configured")
	}

	var stored int
	var failed []string
	for _, dest := range d.dests {
		err := dest.Store(ctx, a)
		switch {
		case errors.Is(err, ErrSkipped):
			zap.L().Debug("artifact skipped",
				zap.String("destination", dest.Name()),
				zap.String("filename", a.Filename))
		case err != nil:
			perr := &PersistenceError{Destination: dest.Name(), Err: err}
			zap.L().Error("artifact store failed",
				zap.String("destination", dest.Name()),
				zap.String("hmc", a.HMCIdentifier),
				zap.String("filename", a.Filename),
				zap.Error(err))
			failed = append(failed, perr.Error())
		default:
			stored++
			zap.L().Debug("artifact stored",
				zap.String("destination", dest.Name()),
				zap.String("filename", a.Filename))
		}
	}

	if stored == 0 {
		if len(failed) > 0 {
			return fmt.Errorf("all destinations failed: %s", strings.Join(failed, "; "))
		}
		return fmt.Errorf("no destination accepted %s", a.Filename)
	}
	return nil
}
