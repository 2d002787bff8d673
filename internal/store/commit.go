package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs, and every sense reference within the batch is rewritten using the
// fakeToReal mapping. Positive IDs refer to senses committed earlier and
// are kept as is.
//
// Insert order respects FK dependencies:
//  1. Senses
//  2. SenseLemmas (depend on sense_id)
//  3. Relations (depend on both endpoint sense IDs)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Senses))
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("sense id %d not in batch (have %d senses)", id, len(batch.Senses))
		}
		return realID, nil
	}

	// 1. Senses
	for _, sense := range batch.Senses {
		realID, err := insertSenseTx(tx, &sense)
		if err != nil {
			return fmt.Errorf("commit batch: sense %q: %w", sense.Key, err)
		}
		fakeToReal[sense.ID] = realID
	}

	// 2. SenseLemmas
	for _, sl := range batch.SenseLemmas {
		if sl.SenseID, err = remap(sl.SenseID); err != nil {
			return fmt.Errorf("commit batch: lemma %q: %w", sl.Lemma, err)
		}
		if _, err := insertSenseLemmaTx(tx, &sl); err != nil {
			return fmt.Errorf("commit batch: lemma %q: %w", sl.Lemma, err)
		}
	}

	// 3. Relations
	for _, r := range batch.Relations {
		if r.SourceSenseID, err = remap(r.SourceSenseID); err != nil {
			return fmt.Errorf("commit batch: relation source: %w", err)
		}
		if r.TargetSenseID, err = remap(r.TargetSenseID); err != nil {
			return fmt.Errorf("commit batch: relation target: %w", err)
		}
		if _, err := insertRelationTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: relation: %w", err)
		}
	}

	return tx.Commit()
}

// --- Transaction-scoped insert helpers ---

func insertSenseTx(tx *sql.Tx, sense *Sense) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO senses (source_id, key, pos, gloss) VALUES (?, ?, ?, ?)",
		sense.SourceID, sense.Key, sense.POS, sense.Gloss,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSenseLemmaTx(tx *sql.Tx, sl *SenseLemma) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO sense_lemmas (sense_id, lemma, ordinal, rank) VALUES (?, ?, ?, ?)",
		sl.SenseID, sl.Lemma, sl.Ordinal, sl.Rank,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertRelationTx(tx *sql.Tx, r *Relation) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO relations (source_id, source_sense_id, target_sense_id, kind) VALUES (?, ?, ?, ?)",
		r.SourceID, r.SourceSenseID, r.TargetSenseID, r.Kind,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
