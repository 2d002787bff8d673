package store

import (
	"strings"
	"sync"
)

// BatchedStore buffers import inserts in memory using fake (negative)
// IDs. It implements DataStore so loaders can write to it without knowing
// whether they're hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Lookups fall through to the underlying Store, which is safe for
// concurrent reads.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Senses      []Sense
	SenseLemmas []SenseLemma
	Relations   []Relation

	byKey      map[string]int // index into Senses
	ranks      map[string]int // lowercased lemma -> next buffered rank
	nextFakeID int64          // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for lookups.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		byKey:      make(map[string]int),
		ranks:      make(map[string]int),
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertSense(sense *Sense) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sense.ID = fakeID
	b.byKey[sense.Key] = len(b.Senses)
	b.Senses = append(b.Senses, *sense)
	return fakeID, nil
}

func (b *BatchedStore) InsertSenseLemma(sl *SenseLemma) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sl.ID = fakeID
	b.SenseLemmas = append(b.SenseLemmas, *sl)
	lower := strings.ToLower(sl.Lemma)
	if next := sl.Rank + 1; next > b.ranks[lower] {
		b.ranks[lower] = next
	}
	return fakeID, nil
}

func (b *BatchedStore) InsertRelation(r *Relation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	r.ID = fakeID
	b.Relations = append(b.Relations, *r)
	return fakeID, nil
}

// SenseByKey prefers senses buffered in this batch, then the database.
func (b *BatchedStore) SenseByKey(key string) (*Sense, error) {
	b.mu.Lock()
	if i, ok := b.byKey[key]; ok {
		sense := b.Senses[i]
		b.mu.Unlock()
		return &sense, nil
	}
	b.mu.Unlock()
	return b.store.SenseByKey(key)
}

// NextRank counts buffered memberships of lemma on top of the committed ones.
func (b *BatchedStore) NextRank(lemma string) (int, error) {
	rank, err := b.store.NextRank(lemma)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return max(rank, b.ranks[strings.ToLower(lemma)]), nil
}
