package store

// DataStore is the interface for import-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// imports) implement this interface.
type DataStore interface {
	// Inserts return the assigned ID.
	InsertSense(sense *Sense) (int64, error)
	InsertSenseLemma(sl *SenseLemma) (int64, error)
	InsertRelation(r *Relation) (int64, error)

	// Lookups needed by loaders for cross-source references.
	SenseByKey(key string) (*Sense, error)
	NextRank(lemma string) (int, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
