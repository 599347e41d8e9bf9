// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "palytt-geo",
	Short: "geo services for the Palytt map and explore feed",
	Long: `
palytt-geo ingests the geotagged posts exported by the Palytt backend and
serves the clustering, viewport and place-suggestion API the mobile map
screen consumes.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
