// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/palytt/palytt-geo/feed"
	"github.com/palytt/palytt-geo/pinmap"
	"github.com/palytt/palytt-geo/utils"
	"github.com/spf13/cobra"
)

var (
	importFile    string
	importURL     string
	importOptions = feed.ClientOptions{}
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import posts from a backend export",
	Long: `Imports geotagged posts into the local database, either from a JSON
export file or by paging through the backend's export endpoint.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if (importFile == "") == (importURL == "") {
			return errors.New("exactly one of --file or --url is required")
		}

		db, err := openDatabase(false)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := pinmap.NewPostRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return fmt.Errorf("creating posts schema: %w", err)
		}

		var posts []*pinmap.Post

		if importFile != "" {
			posts, err = feed.ReadExport(importFile)
			if err != nil {
				return err
			}
		} else {
			importOptions.BaseURL = importURL
			importOptions.UserAgent = fmt.Sprintf("palytt-geo/%s (+https://github.com/palytt/palytt-geo)", Version)

			client, err := feed.NewClient(importOptions)
			if err != nil {
				return err
			}

			var metrics *feed.FetchMetrics

			posts, metrics, err = client.FetchAll()
			if err != nil {
				return err
			}

			log.Printf("Fetched %s posts across %d pages",
				utils.FormatInt(int64(metrics.TotalPosts)), metrics.Pages)
		}

		existing, err := repo.CountPosts()
		if err != nil {
			return fmt.Errorf("counting posts: %w", err)
		}

		// Safety check: do not clobber a database that has more posts than
		// the incoming set. That usually means importing a stale export.
		if existing > len(posts) {
			log.Printf("⚠️  Local posts (%d) exceed import size (%d). Skipping import.", existing, len(posts))

			return nil
		}

		if existing > 0 {
			log.Printf("♻️  Replacing %s existing posts...", utils.FormatInt(int64(existing)))

			if _, err := db.Exec("DELETE FROM posts"); err != nil {
				return fmt.Errorf("clearing posts: %w", err)
			}
		}

		if err := repo.BulkInsertPosts(posts); err != nil {
			return fmt.Errorf("inserting posts: %w", err)
		}

		fmt.Printf("✅ Imported %s posts\n", utils.FormatInt(int64(len(posts))))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importFile, "file", "", "JSON export file to import")
	importCmd.Flags().StringVar(&importURL, "url", "", "Backend base URL to fetch posts from")
	importCmd.Flags().IntVar(&importOptions.PageSize, "page-size", 200, "Posts per export page")
	importCmd.Flags().IntVar(&importOptions.MaxPages, "max-pages", 0, "Maximum pages to fetch (0 = unlimited)")
	importCmd.Flags().BoolVar(&importOptions.EnableHTTPTrace, "http-trace", false, "Trace HTTP requests and responses")
	importCmd.Flags().BoolVar(&importOptions.EnableHTTPBodyTrace, "http-body-trace", false, "Trace full HTTP bodies")
}
