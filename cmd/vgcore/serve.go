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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visgraph/vgcore/internal/config"
	"github.com/visgraph/vgcore/internal/transport"
	"github.com/visgraph/vgcore/internal/vglog"
)

// newServeCmd is grounded on cmd/cayley/command/http.go's NewHttpCmd:
// read bound flags out of viper, log startup, serve until signaled.
func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the protocol WebSocket endpoint and Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			vglog.SetLevel(cfg.LogLevel)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				vglog.Infof("vgcore: shutting down")
				cancel()
			}()

			errCh := make(chan error, 2)
			go func() { errCh <- transport.ServeMetrics(ctx, cfg) }()
			go func() { errCh <- transport.Serve(ctx, cfg) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return nil
			}
		},
	}
}
