package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MigrationPair describes the up/down SQL files of one schema change.
type MigrationPair struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down file pair under migrationsDir.
// The version prefix is the current timestamp so files sort in creation
// order, matching golang-migrate's expectations.
func CreateMigration(migrationsDir, name, description string) (*MigrationPair, error) {
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	base := version + "_" + sanitizeName(name)

	pair := &MigrationPair{
		Version:     version,
		Name:        name,
		Description: description,
		UpPath:      filepath.Join(migrationsDir, base+".up.sql"),
		DownPath:    filepath.Join(migrationsDir, base+".down.sql"),
	}

	header := func(suffix, body string) []byte {
		var b strings.Builder
		fmt.Fprintf(&b, "-- Migration: %s%s\n", name, suffix)
		fmt.Fprintf(&b, "-- Created: %s\n", now.Format(time.RFC3339))
		if description != "" {
			fmt.Fprintf(&b, "-- Description: %s\n", description)
		}
		b.WriteString("\n" + body + "\n")
		return []byte(b.String())
	}

	if err := os.WriteFile(pair.UpPath, header("", "-- Write your UP migration SQL here"), 0o644); err != nil {
		return nil, fmt.Errorf("writing up migration: %w", err)
	}
	if err := os.WriteFile(pair.DownPath, header(" (rollback)", "-- Write your DOWN migration SQL here"), 0o644); err != nil {
		_ = os.Remove(pair.UpPath)
		return nil, fmt.Errorf("writing down migration: %w", err)
	}

	return pair, nil
}

// sanitizeName lowercases the migration name and collapses everything that is
// not alphanumeric into single underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			s := b.String()
			if s != "" && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of the migration pairs in a
// directory, sorted by version.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	sort.Strings(migrations)
	if migrations == nil {
		migrations = []string{}
	}
	return migrations, nil
}
