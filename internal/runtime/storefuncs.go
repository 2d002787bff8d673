package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/lexgraph/internal/store"
	"github.com/jward/lexgraph/internal/taxonomy"
)

// makeInsertSenseFn creates "insert_sense".
//
// insert_sense({"key": k, "pos": p, "gloss": g, "source_id": id}) → int
func makeInsertSenseFn(ds store.DataStore) *object.Builtin {
	return object.NewBuiltin("insert_sense", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_sense", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_sense: %v", err)
		}

		key := getString(m, "key")
		if key == "" {
			return object.Errorf("insert_sense: key is required")
		}
		pos, err := taxonomy.ParsePOS(getString(m, "pos"))
		if err != nil {
			return object.Errorf("insert_sense %s: %v", key, err)
		}
		sense := &store.Sense{Key: key, POS: string(pos), Gloss: getString(m, "gloss")}
		if v, ok := getOptionalInt64(m, "source_id"); ok {
			sense.SourceID = &v
		}

		id, insertErr := ds.InsertSense(sense)
		if insertErr != nil {
			return object.Errorf("insert_sense: %v", insertErr)
		}
		return object.NewInt(id)
	})
}

// makeAddLemmaFn creates "add_lemma". The lemma's rank is assigned after
// its existing senses.
//
// add_lemma(sense_id, lemma, ordinal) → int
func makeAddLemmaFn(ds store.DataStore) *object.Builtin {
	return object.NewBuiltin("add_lemma", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("add_lemma", 3, len(args))
		}
		senseID, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("add_lemma: sense_id: %v", err)
		}
		lemma, err := toString(args[1])
		if err != nil {
			return object.Errorf("add_lemma: lemma: %v", err)
		}
		if lemma == "" {
			return object.Errorf("add_lemma: empty lemma for sense %d", senseID)
		}
		ordinal, err := toInt64(args[2])
		if err != nil {
			return object.Errorf("add_lemma: ordinal: %v", err)
		}

		rank, err := ds.NextRank(lemma)
		if err != nil {
			return object.Errorf("add_lemma: %v", err)
		}
		id, err := ds.InsertSenseLemma(&store.SenseLemma{
			SenseID: senseID,
			Lemma:   lemma,
			Ordinal: int(ordinal),
			Rank:    rank,
		})
		if err != nil {
			return object.Errorf("add_lemma: %v", err)
		}
		return object.NewInt(id)
	})
}

// makeInsertRelationFn creates "insert_relation". Endpoints are sense
// keys. When either key is not yet known the relation is handed to
// deferFn and nil is returned.
//
// insert_relation({"source": key, "target": key, "kind": kind, "source_id": id}) → int or nil
func makeInsertRelationFn(ds store.DataStore, deferFn func(PendingRelation)) *object.Builtin {
	return object.NewBuiltin("insert_relation", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_relation", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_relation: %v", err)
		}

		p := PendingRelation{
			SourceKey: getString(m, "source"),
			TargetKey: getString(m, "target"),
			Kind:      getStringDefault(m, "kind", store.RelationHypernym),
		}
		if v, ok := getOptionalInt64(m, "source_id"); ok {
			p.Owner = &v
		}
		if p.SourceKey == "" || p.TargetKey == "" {
			return object.Errorf("insert_relation: source and target are required")
		}
		if p.Kind != store.RelationHypernym && p.Kind != store.RelationInstanceHypernym {
			return object.Errorf("insert_relation: unknown kind %q", p.Kind)
		}

		src, err := ds.SenseByKey(p.SourceKey)
		if err != nil {
			return object.Errorf("insert_relation: %v", err)
		}
		dst, err := ds.SenseByKey(p.TargetKey)
		if err != nil {
			return object.Errorf("insert_relation: %v", err)
		}
		if src == nil || dst == nil {
			deferFn(p)
			return object.Nil
		}

		id, err := ds.InsertRelation(&store.Relation{
			SourceID:      p.Owner,
			SourceSenseID: src.ID,
			TargetSenseID: dst.ID,
			Kind:          p.Kind,
		})
		if err != nil {
			return object.Errorf("insert_relation: %v", err)
		}
		return object.NewInt(id)
	})
}

// makeSenseByKeyFn creates "sense_by_key".
//
// sense_by_key(key) → {"id", "key", "pos", "gloss"} or nil
func makeSenseByKeyFn(ds store.DataStore) *object.Builtin {
	return object.NewBuiltin("sense_by_key", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("sense_by_key", 1, len(args))
		}
		key, err := toString(args[0])
		if err != nil {
			return object.Errorf("sense_by_key: %v", err)
		}
		sense, err := ds.SenseByKey(key)
		if err != nil {
			return object.Errorf("sense_by_key: %v", err)
		}
		if sense == nil {
			return object.Nil
		}
		return object.NewMap(map[string]object.Object{
			"id":    object.NewInt(sense.ID),
			"key":   object.NewString(sense.Key),
			"pos":   object.NewString(sense.POS),
			"gloss": object.NewString(sense.Gloss),
		})
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getStringDefault(m map[string]object.Object, key, def string) string {
	v := getString(m, key)
	if v == "" {
		return def
	}
	return v
}

func getOptionalInt64(m map[string]object.Object, key string) (int64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	if _, ok := v.(*object.NilType); ok {
		return 0, false
	}
	if i, ok := v.(*object.Int); ok {
		return i.Value(), true
	}
	if f, ok := v.(*object.Float); ok {
		return int64(f.Value()), true
	}
	return 0, false
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
