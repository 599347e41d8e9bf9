// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/palytt/palytt-geo/feed"
	"github.com/palytt/palytt-geo/pinmap"
	"github.com/palytt/palytt-geo/utils"
	"github.com/spf13/cobra"
)

var exportFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export posts to a JSON file",
	Long:  `Exports all posts from the database to a local JSON file. The file is sorted to minimize diffs when checking into version control.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase(true)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := pinmap.NewPostRepository(db)

		posts, err := repo.GetAllPostsSorted()
		if err != nil {
			return fmt.Errorf("getting posts: %w", err)
		}

		if err := feed.WriteExport(exportFile, posts); err != nil {
			return err
		}

		fmt.Printf("✅ Exported %s posts to %s\n",
			utils.FormatInt(int64(len(posts))), exportFile)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFile, "file", "posts.json", "Destination file")
}
