// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/palytt/palytt-geo/pinmap"
	"github.com/spf13/cobra"
)

var (
	dbPath    string
	serveAddr string
)

const dbFileName = "palytt.duckdb"

func openDatabase(mustExist bool) (*sql.DB, error) {
	if err := os.MkdirAll(dbPath, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	path := filepath.Join(dbPath, dbFileName)

	if mustExist {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s - run 'import' first", path)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the map API server",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase(true)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := pinmap.NewPostRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return fmt.Errorf("creating posts schema: %w", err)
		}

		server := pinmap.NewServer(repo)

		fmt.Println("🗺️  Map API server starting...")
		fmt.Printf("📍 Listening on http://%s\n", serveAddr)

		return server.Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"db-path",
		"db",
		"Base directory for the local database",
	)
	serveCmd.Flags().StringVar(
		&serveAddr,
		"addr",
		"localhost:8080",
		"Address to listen on",
	)
}
