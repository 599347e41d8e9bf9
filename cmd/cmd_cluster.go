// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/palytt/palytt-geo/cluster"
	"github.com/palytt/palytt-geo/pinmap"
	"github.com/palytt/palytt-geo/spatial"
	"github.com/palytt/palytt-geo/utils"
	"github.com/spf13/cobra"
)

var (
	clusterBounds spatial.Bounds
	clusterRadius float64
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster pins in a viewport and print the result",
	Long: `Runs the map clustering offline against the local database. Useful to
inspect how a viewport will group before the client renders it.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase(true)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := pinmap.NewPostRepository(db)

		posts, err := repo.ListPostsInBounds(clusterBounds, 0)
		if err != nil {
			return fmt.Errorf("listing posts: %w", err)
		}

		points := make([]cluster.GeoPoint, len(posts))
		for i, p := range posts {
			points[i] = p.GeoPoint()
		}

		clusters, skipped, err := cluster.ByRadius(points, clusterRadius)
		if err != nil {
			return err
		}

		a, b, c := strings.Repeat("─", 3), strings.Repeat("─", 24), strings.Repeat("─", 12)
		fmt.Printf("Clusters for viewport (radius %.1fm):\n", clusterRadius)
		fmt.Printf("╭─%3s─┬─%-24s─┬─%-6s─┬─%-12s╮\n", a, b, "──────", c)
		fmt.Printf("│ %3s │ %-24s │ %-6s │ %-12s│\n", "#", "Center", "Pins", "Total likes")
		fmt.Printf("├─%3s─┼─%-24s─┼─%-6s─┼─%-12s┤\n", a, b, "──────", c)

		for i, cl := range clusters {
			fmt.Printf("│ %3d │ %11.6f,%11.6f │ %6d │ %-12s│\n",
				i+1, cl.Center.Lat, cl.Center.Lng, len(cl.Members),
				utils.FormatInt(cl.TotalWeight))
		}

		fmt.Printf("╰─%3s─┴─%-24s─┴─%-6s─┴─%-12s╯\n", a, b, "──────", c)

		if skipped > 0 {
			fmt.Printf("⚠️  Skipped %d posts with non-finite coordinates\n", skipped)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.Flags().Float64Var(&clusterBounds.MinLat, "min-lat", -90, "Viewport minimum latitude")
	clusterCmd.Flags().Float64Var(&clusterBounds.MaxLat, "max-lat", 90, "Viewport maximum latitude")
	clusterCmd.Flags().Float64Var(&clusterBounds.MinLng, "min-lng", -180, "Viewport minimum longitude")
	clusterCmd.Flags().Float64Var(&clusterBounds.MaxLng, "max-lng", 180, "Viewport maximum longitude")
	clusterCmd.Flags().Float64Var(&clusterRadius, "radius", cluster.DefaultRadiusMeters, "Clustering radius in meters")
}
