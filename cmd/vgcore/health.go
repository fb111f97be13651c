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
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

const defaultHealthAddress = "http://localhost:8923/"

// newHealthCmd is grounded on cmd/cayley/command/health.go's NewHealthCmd.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health [address]",
		Short: "Health check the vgcore listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("too many arguments, expected 0 or 1")
			}
			address := defaultHealthAddress
			if len(args) == 1 {
				address = args[0]
			}
			url := address + "healthz"
			resp, err := http.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				return fmt.Errorf("%s responded with status %d, expected %d", url, resp.StatusCode, http.StatusNoContent)
			}
			fmt.Printf("%s ok\n", url)
			return nil
		},
	}
}
