package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, dir, "config.yaml", `
indexer:
  dataDir: `+filepath.Join(dir, "data")+`
  numShards: 2
  noSync: true
schema:
  identifier: id
  attributes:
    - name: title
      indexed: true
    - name: price
      ranked: true
logging:
  level: error
`)
}

func TestExecute_Version(t *testing.T) {
	if err := Execute("1.0.0", "indexer", []string{"--version"}); err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	if err := Execute("1.0.0", "indexer", []string{"--invalid-flag"}); err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_IngestRequiresFiles(t *testing.T) {
	if err := Execute("1.0.0", "indexer", []string{"ingest"}); err == nil {
		t.Error("Expected error for ingest without files")
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	runMain([]string{"indexer", "--invalid"}, func(code int) { exitCode = code })
	if exitCode != 1 {
		t.Errorf("Expected exit code 1, got: %d", exitCode)
	}
}

func TestIngestThenSearch(t *testing.T) {
	cfgPath := testConfig(t)
	docs := writeFile(t, t.TempDir(), "docs.jsonl",
		`{"id": 7, "title": "red shoes", "price": 19.99}
{"id": "8", "title": "running shoes", "price": 49}
{"title": "no id"}
[{"id": 9, "title": "wool hat", "price": "cheap"}]
`)
	var out bytes.Buffer
	if err := runIngest(t.Context(), cfgPath, []string{docs}, &out); err != nil {
		t.Fatalf("runIngest: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "indexed 2 documents, rejected 2") {
		t.Errorf("ingest output = %q", got)
	}

	out.Reset()
	if err := runSearch(t.Context(), cfgPath, "shoes", &out); err != nil {
		t.Fatalf("runSearch: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "7\ttitle\t") || !strings.HasPrefix(lines[1], "8\ttitle\t") {
		t.Errorf("search output = %q", out.String())
	}
}

func TestReadDocumentsExpandsArrays(t *testing.T) {
	var kinds []value.Kind
	err := readDocuments(strings.NewReader(`{"a":1} [{"b":2},{"c":3}]`), func(doc value.Value) error {
		kinds = append(kinds, doc.Kind())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 3 {
		t.Errorf("decoded %d documents, want 3", len(kinds))
	}
	if err := readDocuments(strings.NewReader(`{"a":`), func(value.Value) error { return nil }); err == nil {
		t.Error("expected error for truncated input")
	}
}
