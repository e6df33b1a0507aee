package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Source fixtures shared by package tests.
const (
	// ValidSQL analyses without diagnostics.
	ValidSQL = `-- maintenance
BEGIN IMMEDIATE TRANSACTION;
ATTACH DATABASE 'archive.db' AS archive;
ANALYZE archive.events;
VACUUM archive INTO 'backup.db';
DETACH archive;
COMMIT;
`

	// BrokenSQL yields one diagnostic per statement: Syntax, UnknownKeyword,
	// Unimplemented and Semicolon.
	BrokenSQL = `VACUUM 5;
VACCUM;
SELECT * FROM t;
COMMIT`

	// ExpectedSQL marks a broken statement as expected. It yields no
	// diagnostics and a single COMMIT statement.
	ExpectedSQL = `-- @sqleibniz::expect the next statement is broken on purpose
VACUUM 5 INTO 5;
COMMIT;
`
)

// SetupSQLFiles writes files (name to content) into a fresh temporary
// directory and returns the directory and the sorted file paths.
func SetupSQLFiles(t testing.TB, files map[string]string) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return dir, paths
}
