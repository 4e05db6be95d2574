//go:build integration

package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func skipIfNoPostgres(t *testing.T) *Client {
	t.Helper()
	port, _ := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	c, err := New(config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "searchplatform_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "searchplatform"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetDocumentStatus(t *testing.T) {
	c := skipIfNoPostgres(t)
	ctx := context.Background()
	_, err := c.DB.ExecContext(ctx, `
		CREATE TEMP TABLE documents (id TEXT PRIMARY KEY, status TEXT, indexed_at TIMESTAMPTZ);
		CREATE TEMP TABLE document_failures (document_id TEXT, reason TEXT, detail TEXT, failed_at TIMESTAMPTZ);
		INSERT INTO documents (id, status) VALUES ('7', 'PENDING');`)
	if err != nil {
		t.Fatalf("creating tables: %v", err)
	}
	c.DB.SetMaxOpenConns(1)

	if err := c.SetDocumentStatus(ctx, "7", StatusFailed, "number_conversion", "price: cheap"); err != nil {
		t.Fatalf("SetDocumentStatus: %v", err)
	}
	var status string
	if err := c.DB.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = '7'`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != StatusFailed {
		t.Errorf("status = %s, want %s", status, StatusFailed)
	}
	var failures int
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_failures`).Scan(&failures); err != nil {
		t.Fatal(err)
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}
