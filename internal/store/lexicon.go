package store

import (
	"database/sql"
	"fmt"
)

// --- Source operations ---

func (s *Store) InsertSource(src *Source) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO sources (path, hash, format, imported_at) VALUES (?, ?, ?, ?)",
		src.Path, src.Hash, src.Format, src.ImportedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	src.ID = id
	return id, nil
}

// SourceByPath returns nil, nil when no source has been recorded for path.
func (s *Store) SourceByPath(path string) (*Source, error) {
	src := &Source{}
	err := s.db.QueryRow(
		"SELECT id, path, hash, format, imported_at FROM sources WHERE path = ?", path,
	).Scan(&src.ID, &src.Path, &src.Hash, &src.Format, &src.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("source by path: %w", err)
	}
	return src, nil
}

func (s *Store) UpdateSource(src *Source) error {
	_, err := s.db.Exec(
		"UPDATE sources SET hash = ?, format = ?, imported_at = ? WHERE id = ?",
		src.Hash, src.Format, src.ImportedAt, src.ID,
	)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	return nil
}

func (s *Store) Sources() ([]*Source, error) {
	rows, err := s.db.Query("SELECT id, path, hash, format, imported_at FROM sources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	defer rows.Close()
	var out []*Source
	for rows.Next() {
		src := &Source{}
		if err := rows.Scan(&src.ID, &src.Path, &src.Hash, &src.Format, &src.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// SourcesDependingOn returns the other sources that recorded relations
// touching senses defined by sourceID. Re-importing sourceID drops those
// relations, so the dependents must be re-imported with it.
func (s *Store) SourcesDependingOn(sourceID int64) ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT r.source_id
		FROM relations r
		JOIN senses mine ON mine.id IN (r.source_sense_id, r.target_sense_id)
		WHERE mine.source_id = ? AND r.source_id IS NOT NULL AND r.source_id != ?
		ORDER BY r.source_id`,
		sourceID, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("sources depending on %d: %w", sourceID, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan source id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Sense operations ---

func (s *Store) InsertSense(sense *Sense) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO senses (source_id, key, pos, gloss) VALUES (?, ?, ?, ?)",
		sense.SourceID, sense.Key, sense.POS, sense.Gloss,
	)
	if err != nil {
		return 0, fmt.Errorf("insert sense %q: %w", sense.Key, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sense.ID = id
	return id, nil
}

const senseCols = "id, source_id, key, pos, gloss"

func scanSense(scanner interface{ Scan(...any) error }) (*Sense, error) {
	sense := &Sense{}
	var gloss sql.NullString
	if err := scanner.Scan(&sense.ID, &sense.SourceID, &sense.Key, &sense.POS, &gloss); err != nil {
		return nil, err
	}
	sense.Gloss = gloss.String
	return sense, nil
}

// SenseByKey returns nil, nil when the key is unknown.
func (s *Store) SenseByKey(key string) (*Sense, error) {
	sense, err := scanSense(s.db.QueryRow("SELECT "+senseCols+" FROM senses WHERE key = ?", key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sense by key: %w", err)
	}
	return sense, nil
}

// Senses returns every sense in insertion order.
func (s *Store) Senses() ([]*Sense, error) {
	return s.querySenses("SELECT " + senseCols + " FROM senses ORDER BY id")
}

func (s *Store) SensesBySource(sourceID int64) ([]*Sense, error) {
	return s.querySenses("SELECT "+senseCols+" FROM senses WHERE source_id = ? ORDER BY id", sourceID)
}

// SensesByLemma returns the senses a lemma belongs to, best-ranked first.
func (s *Store) SensesByLemma(lemma string) ([]*Sense, error) {
	return s.querySenses(`SELECT s.id, s.source_id, s.key, s.pos, s.gloss
		FROM senses s JOIN sense_lemmas sl ON sl.sense_id = s.id
		WHERE sl.lemma = ? COLLATE NOCASE
		ORDER BY sl.rank, s.id`, lemma)
}

func (s *Store) querySenses(query string, args ...any) ([]*Sense, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query senses: %w", err)
	}
	defer rows.Close()
	var senses []*Sense
	for rows.Next() {
		sense, err := scanSense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sense: %w", err)
		}
		senses = append(senses, sense)
	}
	return senses, rows.Err()
}

// --- Lemma operations ---

func (s *Store) InsertSenseLemma(sl *SenseLemma) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO sense_lemmas (sense_id, lemma, ordinal, rank) VALUES (?, ?, ?, ?)",
		sl.SenseID, sl.Lemma, sl.Ordinal, sl.Rank,
	)
	if err != nil {
		return 0, fmt.Errorf("insert sense lemma %q: %w", sl.Lemma, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sl.ID = id
	return id, nil
}

// SenseLemmas returns every lemma membership ordered by sense, then ordinal.
func (s *Store) SenseLemmas() ([]*SenseLemma, error) {
	rows, err := s.db.Query("SELECT id, sense_id, lemma, ordinal, rank FROM sense_lemmas ORDER BY sense_id, ordinal, id")
	if err != nil {
		return nil, fmt.Errorf("sense lemmas: %w", err)
	}
	defer rows.Close()
	var out []*SenseLemma
	for rows.Next() {
		sl := &SenseLemma{}
		if err := rows.Scan(&sl.ID, &sl.SenseID, &sl.Lemma, &sl.Ordinal, &sl.Rank); err != nil {
			return nil, fmt.Errorf("scan sense lemma: %w", err)
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

// NextRank returns the rank a new sense of lemma should take so it sorts
// after the senses already recorded for it.
func (s *Store) NextRank(lemma string) (int, error) {
	var rank int
	err := s.db.QueryRow(
		"SELECT COALESCE(MAX(rank) + 1, 0) FROM sense_lemmas WHERE lemma = ? COLLATE NOCASE", lemma,
	).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("next rank: %w", err)
	}
	return rank, nil
}

// --- Relation operations ---

func (s *Store) InsertRelation(r *Relation) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO relations (source_id, source_sense_id, target_sense_id, kind) VALUES (?, ?, ?, ?)",
		r.SourceID, r.SourceSenseID, r.TargetSenseID, r.Kind,
	)
	if err != nil {
		return 0, fmt.Errorf("insert relation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

func (s *Store) Relations() ([]*Relation, error) {
	rows, err := s.db.Query("SELECT id, source_id, source_sense_id, target_sense_id, kind FROM relations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("relations: %w", err)
	}
	defer rows.Close()
	var out []*Relation
	for rows.Next() {
		r := &Relation{}
		var owner sql.NullInt64
		if err := rows.Scan(&r.ID, &owner, &r.SourceSenseID, &r.TargetSenseID, &r.Kind); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		if owner.Valid {
			r.SourceID = &owner.Int64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
