package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/recruiter-agent/internal/fetch"
)

// PageCache is the Postgres fetch.Cache for resume pages.
type PageCache struct {
	db *DB
}

// ResumePages returns the resume page cache backed by db.
func (db *DB) ResumePages() *PageCache {
	return &PageCache{db: db}
}

// GetPage returns the cached page if it is younger than maxAge, or nil.
func (c *PageCache) GetPage(ctx context.Context, url string, maxAge time.Duration) (*fetch.Page, error) {
	page := fetch.Page{URL: url}
	err := c.db.pool.QueryRow(ctx,
		`SELECT text, rendered, fetched_at FROM resume_pages
		 WHERE url = $1 AND fetched_at > $2`,
		url, time.Now().Add(-maxAge),
	).Scan(&page.Text, &page.Rendered, &page.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume page: %w", err)
	}
	return &page, nil
}

// PutPage upserts a fetched page.
func (c *PageCache) PutPage(ctx context.Context, page *fetch.Page) error {
	_, err := c.db.pool.Exec(ctx,
		`INSERT INTO resume_pages (url, text, rendered, fetched_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (url) DO UPDATE SET text = $2, rendered = $3, fetched_at = $4`,
		page.URL, page.Text, page.Rendered, page.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to cache resume page: %w", err)
	}
	return nil
}
