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

// Package config defines vgcore's runtime configuration and binds it to
// cobra flags / viper sources, generalized from the teacher's JSON-file
// internal/config.Config to the ambient CLI/env/file layering the rest of
// the example pack uses cobra+viper for.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is vgcore's runtime configuration (§5 "ambient CLI flags").
type Config struct {
	ListenAddr string `mapstructure:"listen-addr"`

	QueryTimeout  time.Duration `mapstructure:"query-timeout"`
	ReasonTimeout time.Duration `mapstructure:"reason-timeout"`

	BatchSize int `mapstructure:"batch-size"`

	ReadOnly bool `mapstructure:"read-only"`

	MetricsAddr string `mapstructure:"metrics-addr"`

	LogLevel string `mapstructure:"log-level"`
}

// Defaults returns the zero-config baseline (§4.5 batch size of 1000;
// 30s query and reasoning timeouts).
func Defaults() Config {
	return Config{
		ListenAddr:    ":8923",
		QueryTimeout:  30 * time.Second,
		ReasonTimeout: 30 * time.Second,
		BatchSize:     1000,
		MetricsAddr:   ":9923",
		LogLevel:      "info",
	}
}

// BindFlags registers cmd's persistent flags and binds them into v, mirroring
// the teacher's `--assets`/flag.String ambient-flag pattern but through
// cobra/viper so VGCORE_-prefixed environment variables and a config file
// both layer underneath explicit flags.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	d := Defaults()
	fs := cmd.PersistentFlags()
	fs.String("listen-addr", d.ListenAddr, "address the protocol transport listens on")
	fs.Duration("query-timeout", d.QueryTimeout, "read into Config only; fetchQuadsPage/getQuads run without a timeout")
	fs.Duration("reason-timeout", d.ReasonTimeout, "read into Config only; runReasoning uses a fixed 15s ruleset-fetch timeout and no evaluation timeout")
	fs.Int("batch-size", d.BatchSize, "read into Config only; loadFromUrl always sends batches of 1000 quads (§4.5)")
	fs.Bool("read-only", false, "read into Config only; session workers are not put in read-only mode")
	fs.String("metrics-addr", d.MetricsAddr, "address the Prometheus /metrics endpoint listens on")
	fs.String("log-level", d.LogLevel, "logrus level: debug, info, warning, error")

	for _, name := range []string{"listen-addr", "query-timeout", "reason-timeout", "batch-size", "read-only", "metrics-addr", "log-level"} {
		_ = v.BindPFlag(name, fs.Lookup(name))
	}

	v.SetEnvPrefix("vgcore")
	v.AutomaticEnv()
}

// FromViper decodes the bound flags/env/file values in v into a Config.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
