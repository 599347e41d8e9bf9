// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/palytt/palytt-geo/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
