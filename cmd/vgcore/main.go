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

// Command vgcore runs the concurrent core engine behind the interactive
// RDF knowledge-graph editor, grounded on cmd/cayley's cobra-subcommand
// layout (cmd/cayley/command/*.go's NewXxxCmd factories).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visgraph/vgcore/internal/config"
	"github.com/visgraph/vgcore/internal/vglog"
)

// Version is filled in by `go build -ldflags "-X main.Version=..."`.
var Version string

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:   "vgcore",
		Short: "Concurrent core engine for the visgraph RDF editor",
	}
	config.BindFlags(root, v)

	root.AddCommand(newServeCmd(v))
	root.AddCommand(newVersionCmd())
	root.AddCommand(newHealthCmd())

	if err := root.Execute(); err != nil {
		vglog.Errorf("%v", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if Version != "" {
				fmt.Println("vgcore", Version)
			} else {
				fmt.Println("vgcore (development build)")
			}
			return nil
		},
	}
}
