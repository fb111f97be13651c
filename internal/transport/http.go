// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/visgraph/vgcore/internal/config"
	"github.com/visgraph/vgcore/internal/metrics"
	"github.com/visgraph/vgcore/internal/vglog"
)

// ResponseHandler mirrors the teacher's internal/http.ResponseHandler shape
// (httprouter.Handle plus a logged status code), kept for routes that are
// plain request/response rather than upgraded to a Session.
type ResponseHandler func(http.ResponseWriter, *http.Request, httprouter.Params) int

// LogRequest wraps h the way the teacher's internal/http.LogRequest does,
// logging through vglog instead of clog.
func LogRequest(h ResponseHandler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		start := time.Now()
		code := h(w, r, params)
		vglog.Infof("%s %s -> %d (%v)", r.Method, r.URL.Path, code, time.Since(start))
	}
}

// handleHealth is a liveness probe, grounded on internal/http/health.go.
func handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) int {
	w.WriteHeader(http.StatusNoContent)
	return http.StatusNoContent
}

// SetupRoutes mounts the `/ws` session-upgrade endpoint and `/healthz` on r.
func SetupRoutes(r *httprouter.Router) {
	r.GET("/healthz", LogRequest(handleHealth))
	r.GET("/ws", func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			vglog.Warningf("transport: upgrade failed: %v", err)
			return
		}
		sess := NewSession(conn)
		sess.Serve(req.Context())
	})
}

// Serve starts the protocol listener on cfg.ListenAddr (§5 ambient "serve"
// command), mirroring the teacher's internal/http.Serve shape.
func Serve(ctx context.Context, cfg config.Config) error {
	r := httprouter.New()
	SetupRoutes(r)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	vglog.Infof("vgcore listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("transport: %w", err)
	}
	return nil
}

// ServeMetrics starts the Prometheus /metrics listener on cfg.MetricsAddr.
func ServeMetrics(ctx context.Context, cfg config.Config) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	vglog.Infof("vgcore metrics listening on %s", cfg.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("transport: metrics: %w", err)
	}
	return nil
}
