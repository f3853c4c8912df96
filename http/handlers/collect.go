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

// Package handlers wires the on-demand collection endpoint for serve mode.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/powerfleet/hmcreport/collector"
	"github.com/powerfleet/hmcreport/hmc"
	"github.com/powerfleet/hmcreport/inventory"
	"github.com/powerfleet/hmcreport/middleware/logging"
	"github.com/powerfleet/hmcreport/persist"
	"github.com/powerfleet/hmcreport/render"
)

var (
	collectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hmcreport_collections_total",
		Help: "The total number of collection runs per HMC",
	}, []string{"hmc"})

	collectionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hmcreport_collection_failures_total",
		Help: "Collection runs that produced no usable report, by failure class",
	}, []string{"hmc", "reason"})

	recordsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hmcreport_records_skipped_total",
		Help: "Source records dropped during extraction for missing or malformed fields",
	}, []string{"hmc", "kind"})

	lastCollectionUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hmcreport_last_collection_success",
		Help: "Whether the most recent collection for the HMC produced a usable report",
	}, []string{"hmc"})
)

func init() {
	prometheus.MustRegister(collectionsTotal, collectionFailures, recordsSkipped, lastCollectionUp)
}

// CollectConfig holds the shared state the collect endpoint needs.
type CollectConfig struct {
	Inventory  *inventory.File
	Formats    []render.Format
	Dispatcher *persist.Dispatcher
}

// CollectHandler handles GET /collect?hmc=<name> requests. It runs the full
// pipeline for that single HMC and returns the assembled report as JSON.
func CollectHandler(cfg *CollectConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zap.L()
		ctx := r.Context()
		query := r.URL.Query()

		name := query.Get("hmc")
		if len(query["hmc"]) != 1 || name == "" {
			log.Error("'hmc' parameter not set correctly", zap.String("hmc", name), zap.Any("trace_id", ctx.Value(logging.TraceIDKey)))
			http.Error(w, "'hmc' parameter not set correctly", http.StatusBadRequest)
			return
		}

		var target *inventory.HMC
		for i := range cfg.Inventory.HMCs {
			if cfg.Inventory.HMCs[i].Name == name {
				target = &cfg.Inventory.HMCs[i]
				break
			}
		}
		if target == nil {
			http.Error(w, "unknown hmc "+name, http.StatusNotFound)
			return
		}

		log.Info("started collection",
			zap.String("hmc", name),
			zap.Any("trace_id", ctx.Value(logging.TraceIDKey)))

		outcome := collector.CollectOne(ctx, *target, cfg.Inventory, cfg.Formats, cfg.Dispatcher)
		collectionsTotal.WithLabelValues(name).Inc()
		if outcome.Report != nil {
			for kind, n := range outcome.Report.SkippedRecords {
				recordsSkipped.WithLabelValues(name, kind).Add(float64(n))
			}
		}

		if outcome.Usable() {
			lastCollectionUp.WithLabelValues(name).Set(1)
		} else {
			lastCollectionUp.WithLabelValues(name).Set(0)
		}

		if outcome.Err != nil {
			collectionFailures.WithLabelValues(name, failureReason(outcome.Err)).Inc()
			status := http.StatusBadGateway
			var authErr *hmc.AuthError
			if errors.As(outcome.Err, &authErr) {
				status = http.StatusUnauthorized
			}
			http.Error(w, outcome.Err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(outcome.Report); err != nil {
			log.Error("error writing report response", zap.Error(err), zap.Any("trace_id", ctx.Value(logging.TraceIDKey)))
		}
	}
}

func failureReason(err error) string {
	var authErr *hmc.AuthError
	if errors.As(err, &authErr) {
		return string(authErr.Reason)
	}
	return "pipeline"
}
