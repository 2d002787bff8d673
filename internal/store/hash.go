package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// ComputeContentHash fingerprints a single file's bytes.
func ComputeContentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// ComputeSetHash fingerprints a set of named files. Names are sorted so the
// result does not depend on map order, and each name is mixed in so a
// rename changes the hash.
func ComputeSetHash(files map[string][]byte) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	d := xxhash.New()
	for _, name := range names {
		fmt.Fprintf(d, "%s\x00%016x\n", name, xxhash.Sum64(files[name]))
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// GetMetadata returns the value stored under key, or "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v.String, nil
}

// SetMetadata upserts a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
