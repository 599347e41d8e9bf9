// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/palytt/palytt-geo/spatial"
	"github.com/palytt/palytt-geo/utils"
)

// PlaceCount aggregates how many posts mention a place name.
type PlaceCount struct {
	PlaceName  string `json:"place_name"`
	PostCount  int    `json:"post_count"`
	TotalLikes int64  `json:"total_likes"`
}

// PostRepository handles persistence of geotagged posts.
type PostRepository interface {
	// CreateSchema creates the posts table
	CreateSchema() error

	// SavePost saves or updates a post
	SavePost(post *Post) error

	// BulkInsertPosts inserts a slice of posts into the database
	BulkInsertPosts(posts []*Post) error

	// GetPost returns a post by id
	GetPost(id string) (*Post, error)

	// ListPostsInBounds returns posts whose point falls inside the viewport
	ListPostsInBounds(bounds spatial.Bounds, limit int) ([]*Post, error)

	// ListPostsByCell returns posts that share an H3 cell at a resolution
	ListPostsByCell(res int, cell int64) ([]*Post, error)

	// GetAllPostsSorted returns all posts, sorted by id for stable exports
	GetAllPostsSorted() ([]*Post, error)

	// CountPosts returns the total number of posts
	CountPosts() (int, error)

	// TopPlaces returns the most-posted place names
	TopPlaces(limit int) ([]*PlaceCount, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlPostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *sql.DB) PostRepository {
	return &sqlPostRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlPostRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlPostRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			place_name VARCHAR NOT NULL,
			place_key VARCHAR NOT NULL,
			caption VARCHAR,
			point POINT_2D NOT NULL,
			likes BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func (r *sqlPostRepository) SavePost(post *Post) error {
	if err := validatePost(post); err != nil {
		return err
	}

	existing, err := r.GetPost(post.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if err := post.computeH3(); err != nil {
		return err
	}

	post.UpdatedAt = time.Now()
	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE posts
			SET user_id = ?, place_name = ?, place_key = ?, caption = ?,
			    point = ST_Point(?, ?), likes = ?, updated_at = ?,
				h3_res1 = ?, h3_res2 = ?, h3_res3 = ?, h3_res4 = ?, h3_res5 = ?, h3_res6 = ?, h3_res7 = ?, h3_res8 = ?
			WHERE id = ?
		`,
			post.UserID,
			post.PlaceName,
			utils.NormalizePlace(post.PlaceName),
			post.Caption,
			post.Point.Lng,
			post.Point.Lat,
			post.Likes,
			post.UpdatedAt,
			post.H3Res1,
			post.H3Res2,
			post.H3Res3,
			post.H3Res4,
			post.H3Res5,
			post.H3Res6,
			post.H3Res7,
			post.H3Res8,
			post.ID,
		)

		return err
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = post.UpdatedAt
	}

	return r.BulkInsertPosts([]*Post{post})
}

func (r *sqlPostRepository) BulkInsertPosts(posts []*Post) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO posts(
			id,
			user_id,
			place_name,
			place_key,
			caption,
			point,
			likes,
			created_at,
			updated_at,
			h3_res1,
			h3_res2,
			h3_res3,
			h3_res4,
			h3_res5,
			h3_res6,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		if err = validatePost(p); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}

		if err = p.computeH3(); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}

		caption := &p.Caption
		if len(*caption) == 0 {
			caption = nil
		}

		if _, err = stmt.Exec(
			p.ID,
			p.UserID,
			p.PlaceName,
			utils.NormalizePlace(p.PlaceName),
			caption,
			p.Point.Lng,
			p.Point.Lat,
			p.Likes,
			p.CreatedAt,
			p.UpdatedAt,
			p.H3Res1,
			p.H3Res2,
			p.H3Res3,
			p.H3Res4,
			p.H3Res5,
			p.H3Res6,
			p.H3Res7,
			p.H3Res8,
		); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

var baseSelect = `
	SELECT id, user_id, place_name, caption, point, likes,
	       created_at, updated_at,
		   h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
	FROM posts
`

func (r *sqlPostRepository) GetPost(id string) (*Post, error) {
	posts, err := r.list(baseSelect+" WHERE id = ?", []any{id})
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, sql.ErrNoRows
	}

	return posts[0], nil
}

func (r *sqlPostRepository) ListPostsInBounds(bounds spatial.Bounds, limit int) ([]*Post, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	query := baseSelect + `
		WHERE ST_Y(point) BETWEEN ? AND ?
		  AND ST_X(point) BETWEEN ? AND ?
		ORDER BY created_at DESC, id
	`

	args := []any{bounds.MinLat, bounds.MaxLat, bounds.MinLng, bounds.MaxLng}

	if limit > 0 {
		query += " LIMIT ?"

		args = append(args, limit)
	}

	return r.list(query, args)
}

func (r *sqlPostRepository) ListPostsByCell(res int, cell int64) ([]*Post, error) {
	if res < 1 || res > 8 {
		return nil, fmt.Errorf("h3 resolution must be between 1 and 8, got %d", res)
	}

	query := fmt.Sprintf("%s WHERE h3_res%d = ? ORDER BY created_at DESC, id", baseSelect, res)

	return r.list(query, []any{cell})
}

func (r *sqlPostRepository) GetAllPostsSorted() ([]*Post, error) {
	return r.list(baseSelect+` ORDER BY id`, []any{})
}

func (r *sqlPostRepository) CountPosts() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM posts",
	).Scan(&count)

	return count, err
}

func (r *sqlPostRepository) TopPlaces(limit int) ([]*PlaceCount, error) {
	if limit <= 0 {
		limit = 20
	}

	// Accent and case variants of the same place collapse through place_key.
	rows, err := r.db.Query(`
		SELECT MIN(place_name) AS place_name, COUNT(*) AS post_count, SUM(likes) AS total_likes
		FROM posts
		WHERE place_key != ''
		GROUP BY place_key
		ORDER BY post_count DESC, place_name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*PlaceCount

	for rows.Next() {
		place := &PlaceCount{}
		if err := rows.Scan(&place.PlaceName, &place.PostCount, &place.TotalLikes); err != nil {
			return nil, err
		}

		places = append(places, place)
	}

	return places, rows.Err()
}

func (r *sqlPostRepository) list(query string, args []any) ([]*Post, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post

	for rows.Next() {
		post := &Post{Point: &spatial.Point{}}

		var caption sql.NullString

		var h3Res1, h3Res2, h3Res3, h3Res4, h3Res5, h3Res6, h3Res7, h3Res8 sql.NullInt64

		err := rows.Scan(
			&post.ID, &post.UserID, &post.PlaceName, &caption,
			&post.Point, &post.Likes,
			&post.CreatedAt, &post.UpdatedAt,
			&h3Res1, &h3Res2, &h3Res3, &h3Res4, &h3Res5, &h3Res6, &h3Res7, &h3Res8,
		)
		if err != nil {
			return nil, err
		}

		if caption.Valid {
			post.Caption = caption.String
		}

		if h3Res1.Valid {
			post.H3Res1 = h3Res1.Int64
		}

		if h3Res2.Valid {
			post.H3Res2 = h3Res2.Int64
		}

		if h3Res3.Valid {
			post.H3Res3 = h3Res3.Int64
		}

		if h3Res4.Valid {
			post.H3Res4 = h3Res4.Int64
		}

		if h3Res5.Valid {
			post.H3Res5 = h3Res5.Int64
		}

		if h3Res6.Valid {
			post.H3Res6 = h3Res6.Int64
		}

		if h3Res7.Valid {
			post.H3Res7 = h3Res7.Int64
		}

		if h3Res8.Valid {
			post.H3Res8 = h3Res8.Int64
		}

		posts = append(posts, post)
	}

	return posts, rows.Err()
}
