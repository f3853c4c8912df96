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

// Package collector drives the per-HMC pipeline: authenticate, fetch each
// enabled resource kind, extract and normalize records, compute derived
// metrics, assemble a report, render it, and hand artifacts to persistence.
//
// Failures are isolated per HMC. A run is considered failed only when not a
// single HMC produced a usable report.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/nrednav/cuid2"
	"go.uber.org/zap"

	"github.com/powerfleet/hmcreport/common"
	"github.com/powerfleet/hmcreport/config"
	"github.com/powerfleet/hmcreport/extract"
	"github.com/powerfleet/hmcreport/hmc"
	"github.com/powerfleet/hmcreport/hmc/cli"
	"github.com/powerfleet/hmcreport/hmc/rest"
	"github.com/powerfleet/hmcreport/inventory"
	"github.com/powerfleet/hmcreport/persist"
	"github.com/powerfleet/hmcreport/pool"
	"github.com/powerfleet/hmcreport/render"
	"github.com/powerfleet/hmcreport/report"
)

const defaultHMCTimeout = 90 * time.Second

// Outcome is the result of one HMC's pipeline.
type Outcome struct {
	HMC          inventory.HMC
	TraceID      string
	Report       *report.Report
	Artifacts    []persist.Artifact
	FormatErrors map[render.Format]error
	Persisted    bool
	Err          error
}

// Usable reports whether this HMC yielded a report that made it to at least
// one destination in at least one format.
func (o *Outcome) Usable() bool {
	return o.Err == nil && o.Report != nil && o.Persisted
}

// RunSummary aggregates per-HMC outcomes for exit-status and logging
// decisions.
type RunSummary struct {
	Outcomes []*Outcome
	Usable   int
	Failed   int
}

// Run collects from every HMC in the inventory, bounded by the configured
// concurrency.
func Run(ctx context.Context, inv *inventory.File, formats []render.Format, disp *persist.Dispatcher) *RunSummary {
	outcomes := make([]*Outcome, len(inv.HMCs))
	tasks := make([]*pool.Task, 0, len(inv.HMCs))

	for i := range inv.HMCs {
		i := i
		tasks = append(tasks, pool.NewTask(func() error {
			outcomes[i] = CollectOne(ctx, inv.HMCs[i], inv, formats, disp)
			return outcomes[i].Err
		}))
	}

	p := pool.NewPool(tasks, config.GetConfig().Concurrency)
	p.Run()

	summary := &RunSummary{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Usable() {
			summary.Usable++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// CollectOne runs the full pipeline for a single HMC.
func CollectOne(ctx context.Context, h inventory.HMC, inv *inventory.File, formats []render.Format, disp *persist.Dispatcher) *Outcome {
	out := &Outcome{
		HMC:     h,
		TraceID: cuid2.Generate(),
	}
	log := zap.L().With(
		zap.String("trace_id", out.TraceID),
		zap.String("hmc", h.Name),
		zap.String("mode", h.Mode),
	)

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = config.GetConfig().HMCTimeout
	}
	if timeout <= 0 {
		timeout = defaultHMCTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cred, err := resolveCredential(ctx, h, log)
	if err != nil {
		out.Err = err
		return out
	}

	sess, err := openSession(ctx, h, cred, timeout)
	if err != nil {
		log.Error("HMC authentication failed", zap.Error(err))
		out.Err = err
		return out
	}
	defer func() {
		// the session token gets invalidated even when the collection
		// deadline already expired
		lctx, lcancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer lcancel()
		if lerr := sess.Logoff(lctx); lerr != nil {
			log.Warn("HMC logoff failed", zap.Error(lerr))
		}
	}()

	ts := time.Now()
	results, warnings, fetched := fetchAll(ctx, h, inv, sess, log)
	if fetched == 0 {
		out.Err = fmt.Errorf("no resource kind could be collected from %s", h.Name)
		return out
	}
	// a timed-out HMC produces no report, not a partial one built from
	// whatever kinds happened to land before the deadline
	if ctx.Err() != nil {
		out.Err = hmc.NewAuthError(h.Host, hmc.ReasonTimeout, ctx.Err())
		return out
	}

	systems, sysWarnings := report.ManagedSystemsFrom(results[extract.ManagedSystems].Records)
	lpars, lparWarnings := report.LogicalPartitionsFrom(results[extract.LogicalPartitions].Records)
	adapters := report.PhysicalAdaptersFrom(results[extract.IOAdapters].Records)
	warnings = append(warnings, sysWarnings...)
	warnings = append(warnings, lparWarnings...)

	skipped := map[string]int{}
	for kind, res := range results {
		if res.Skipped > 0 {
			skipped[string(kind)] = res.Skipped
		}
	}

	summary := report.Compute(systems, lpars, adapters)
	out.Report = report.Assemble(h.Name, ts, systems, lpars, adapters, summary, skipped, warnings)

	rendered, failed := render.All(out.Report, formats)
	out.FormatErrors = failed
	for f, rerr := range failed {
		log.Error("render failed", zap.String("format", string(f)), zap.Error(rerr))
	}
	if len(rendered) == 0 {
		out.Err = fmt.Errorf("every output format failed to render for %s", h.Name)
		return out
	}

	for f, data := range rendered {
		out.Artifacts = append(out.Artifacts, persist.Artifact{
			HMCIdentifier: h.Name,
			Filename:      persist.Filename(h.Name, h.Mode == inventory.ModeCLI, ts, f),
			Format:        f,
			ContentType:   render.ContentType(f),
			Bytes:         data,
		})
	}

	stored := 0
	for _, a := range out.Artifacts {
		if perr := disp.Store(ctx, a); perr != nil {
			log.Error("artifact lost, no destination accepted it",
				zap.String("filename", a.Filename), zap.Error(perr))
			continue
		}
		stored++
	}
	out.Persisted = stored > 0
	if !out.Persisted {
		out.Err = fmt.Errorf("no artifact for %s reached any destination", h.Name)
		return out
	}

	log.Info("collection complete",
		zap.Int("managed_systems", len(systems)),
		zap.Int("lpars", len(lpars)),
		zap.Int("adapters", len(adapters)),
		zap.Int("integrity_warnings", len(out.Report.IntegrityWarnings)),
		zap.Int("artifacts_stored", stored))
	return out
}

// fetchAll pulls each enabled resource kind through the session and runs
// extraction. A failed kind is logged and reported as a warning; fetched
// counts the kinds that produced a result.
func fetchAll(ctx context.Context, h inventory.HMC, inv *inventory.File, sess hmc.Session, log *zap.Logger) (map[extract.Kind]extract.Result, []string, int) {
	type fetchFn func(context.Context) ([]byte, error)

	plan := []struct {
		kind    extract.Kind
		enabled bool
		fetch   fetchFn
	}{
		{extract.ManagedSystems, inv.CollectManagedSystems(), sess.FetchManagedSystems},
		{extract.LogicalPartitions, inv.CollectLpars(), sess.FetchLogicalPartitions},
		{extract.IOAdapters, inv.CollectAdapters(), sess.FetchIOAdapters},
	}

	results := map[extract.Kind]extract.Result{
		extract.ManagedSystems:    {Kind: extract.ManagedSystems},
		extract.LogicalPartitions: {Kind: extract.LogicalPartitions},
		extract.IOAdapters:        {Kind: extract.IOAdapters},
	}

	var warnings []string
	fetched := 0

	for _, step := range plan {
		if !step.enabled {
			continue
		}
		raw, err := step.fetch(ctx)
		if err != nil {
			log.Error("fetch failed", zap.String("kind", string(step.kind)), zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("collection of %s failed: %s", step.kind, err))
			continue
		}
		var res extract.Result
		if h.Mode == inventory.ModeCLI {
			res, err = extract.FromCLI(step.kind, raw)
		} else {
			res, err = extract.FromXML(step.kind, raw)
		}
		if err != nil {
			log.Error("extraction failed", zap.String("kind", string(step.kind)), zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("extraction of %s failed: %s", step.kind, err))
			continue
		}
		results[step.kind] = res
		fetched++
	}

	return results, warnings, fetched
}

func openSession(ctx context.Context, h inventory.HMC, cred *common.Credential, timeout time.Duration) (hmc.Session, error) {
	switch h.Mode {
	case inventory.ModeCLI:
		return cli.Dial(ctx, h.Host, h.Port, cred.User, cred.Pass, timeout)
	default:
		validate := h.ValidateCertsOrDefault() && config.GetConfig().SSLVerify
		return rest.Logon(ctx, h.Host, h.Port, cred.User, cred.Pass, validate, timeout)
	}
}

// resolveCredential checks the run cache, then vault, then the static
// fallback from the command line.
func resolveCredential(ctx context.Context, h inventory.HMC, log *zap.Logger) (*common.Credential, error) {
	if cred, ok := common.HMCCreds.Get(h.Name); ok {
		return cred, nil
	}

	if common.HMCCreds.Vault != nil && common.HMCCreds.Vault.IsLoggedIn() {
		cred, err := common.HMCCreds.GetCredentials(ctx, h.CredentialProfile, h.Name)
		if err == nil {
			common.HMCCreds.Set(h.Name, cred)
			return cred, nil
		}
		log.Warn("vault lookup failed, falling back to static credentials", zap.Error(err))
	}

	cfg := config.GetConfig()
	if cfg.User != "" {
		return &common.Credential{User: cfg.User, Pass: cfg.Pass}, nil
	}

	return nil, hmc.NewAuthError(h.Host, hmc.ReasonInvalidCredentials,
		fmt.Errorf("no credentials available for %s: %w", h.Name, common.ErrInvalidCredential))
}
