// Package postgres records the indexing outcome of every document in the
// documents table, and the reason of each failure in document_failures.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
	_ "github.com/lib/pq"
)

const (
	StatusIndexed = "INDEXED"
	StatusFailed  = "FAILED"
)

type Client struct {
	DB *sql.DB
}

func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// SetDocumentStatus marks docID with status. A non-empty reason is appended
// to document_failures in the same transaction.
func (c *Client) SetDocumentStatus(ctx context.Context, docID, status, reason, detail string) error {
	return c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE documents SET status = $1, indexed_at = NOW() WHERE id = $2`,
			status, docID,
		)
		if err != nil {
			return fmt.Errorf("updating status of document %s: %w", docID, err)
		}
		if reason == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO document_failures (document_id, reason, detail, failed_at) VALUES ($1, $2, $3, NOW())`,
			docID, reason, detail,
		)
		if err != nil {
			return fmt.Errorf("recording failure of document %s: %w", docID, err)
		}
		return nil
	})
}

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
