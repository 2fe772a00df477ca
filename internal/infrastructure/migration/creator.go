package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4/source"
)

// MigrationFile is a freshly scaffolded up/down pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes the next sequential pair into dir, creating dir
// when needed. Existing files are never overwritten.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}
	existing, err := scan(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, slug)
	mf := &MigrationFile{
		Version:  fmt.Sprintf("%06d", next),
		Name:     slug,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	created := time.Now().UTC().Format(time.RFC3339)
	up := fmt.Sprintf("-- Migration: %s\n-- Description: %s\n-- Created: %s\n\n", slug, description, created)
	if err := writeNew(mf.UpPath, up); err != nil {
		return nil, err
	}
	if err := writeNew(mf.DownPath, fmt.Sprintf("-- Migration: %s (Rollback)\n\n", slug)); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeName keeps ASCII letters and digits, lowercased, and joins the
// words split by spaces, dashes or underscores with "_"
func sanitizeName(name string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-', r == '_':
			return r
		}
		return -1
	}, strings.ToLower(name))
	words := strings.FieldsFunc(kept, func(r rune) bool { return r == ' ' || r == '-' || r == '_' })
	return strings.Join(words, "_")
}

// scan parses the up migrations in fsys with golang-migrate's file name
// rules, ordered by version. A missing directory holds none.
func scan(fsys fs.FS) ([]*source.Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var ups []*source.Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m, err := source.Parse(e.Name())
		if err != nil || m.Direction != source.Up {
			continue
		}
		ups = append(ups, m)
	}
	slices.SortFunc(ups, func(a, b *source.Migration) int { return cmp.Compare(a.Version, b.Version) })
	return ups, nil
}

// ListMigrations returns the base names of the up migrations in fsys, in
// version order
func ListMigrations(fsys fs.FS) ([]string, error) {
	ups, err := scan(fsys)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ups))
	for _, m := range ups {
		names = append(names, strings.TrimSuffix(m.Raw, "."+string(source.Up)+".sql"))
	}
	return names, nil
}
