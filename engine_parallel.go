package lexgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/jward/lexgraph/internal/runtime"
	"github.com/jward/lexgraph/internal/store"
)

// importItem holds everything an import worker needs.
type importItem struct {
	path     string
	loader   string
	hash     string
	existing *store.Source
	source   *store.Source
	batch    *store.BatchedStore

	// Relations whose endpoints were not known when the script ran.
	pending []runtime.PendingRelation
	failed  bool
}

// importPaths imports files in three phases:
//
//	Phase A (serial):   Hash check, dependents, delete old data, source records.
//	Phase B (parallel): Run loader scripts via worker pool (each with own Runtime).
//	Phase C (serial):   Commit batches, then resolve cross-file relations.
//
// With parallelism disabled, Phase B runs each script directly against the
// Store and there is nothing to commit.
func (e *Engine) importPaths(ctx context.Context, script string, paths []string, force bool) error {
	start := time.Now()

	// ---- Phase A: Serial source preparation ----
	items, err := e.prepareSources(script, paths, force)
	if err != nil {
		return fmt.Errorf("lexgraph: import: %w", err)
	}
	if len(items) == 0 {
		e.logf("import: %d file(s) unchanged", len(paths))
		return nil
	}

	// ---- Phase B/C ----
	var errs []error
	if e.useParallel {
		errs = e.loadParallel(ctx, items)
	} else {
		errs = e.loadSerial(ctx, items)
	}

	var pending []runtime.PendingRelation
	for _, item := range items {
		if !item.failed {
			pending = append(pending, item.pending...)
		}
	}
	errs = append(errs, e.resolvePending(pending)...)

	e.logf("import: %d source(s), %d deferred relation(s) in %s",
		len(items), len(pending), time.Since(start).Round(time.Millisecond))
	if len(errs) > 0 {
		return fmt.Errorf("lexgraph: import had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// loadParallel runs loader scripts on a worker pool, one BatchedStore per
// item, and commits the batches serially as they finish.
func (e *Engine) loadParallel(ctx context.Context, items []*importItem) []error {
	numWorkers := min(goruntime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan *importItem, len(items))
	for _, item := range items {
		item.batch = store.NewBatchedStore(e.store)
		workCh <- item
	}
	close(workCh)

	type result struct {
		item *importItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each item gets its own Runtime; the BatchedStore isolates
			// its writes until commit.
			for item := range workCh {
				err := e.runLoader(ctx, item, item.batch)
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", res.item.path, res.err))
			e.markFailed(res.item)
			continue
		}
		if err := e.store.CommitBatch(res.item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			e.markFailed(res.item)
			continue
		}
		res.item.batch = nil
	}
	return errs
}

func (e *Engine) loadSerial(ctx context.Context, items []*importItem) []error {
	var errs []error
	for _, item := range items {
		if err := e.runLoader(ctx, item, e.store); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", item.path, err))
			e.markFailed(item)
		}
	}
	return errs
}

// runLoader runs the item's loader script against ds.
func (e *Engine) runLoader(ctx context.Context, item *importItem, ds store.DataStore) error {
	rt := e.newRuntime(ds)
	extras := map[string]any{
		"source_path": item.path,
		"source_id":   item.source.ID,
	}
	if err := rt.RunScript(ctx, runtime.LoaderScriptPath(item.loader), extras); err != nil {
		return fmt.Errorf("loader script: %w", err)
	}
	item.pending = rt.Pending()
	return nil
}

// markFailed drops whatever a failed item wrote and clears its hash so the
// next import retries it.
func (e *Engine) markFailed(item *importItem) {
	item.failed = true
	e.resetSources([]*store.Source{item.source})
}

// resetSources deletes the sources' data and clears their hashes, so an
// unchanged file is not mistaken for a completed import.
func (e *Engine) resetSources(srcs []*store.Source) {
	for _, src := range srcs {
		if err := e.store.DeleteSourcesData([]int64{src.ID}); err != nil {
			e.logf("import: clean up %s: %v", src.Path, err)
		}
		src.Hash = ""
		if err := e.store.UpdateSource(src); err != nil {
			e.logf("import: reset %s: %v", src.Path, err)
		}
	}
}

// prepareSources does Phase A: selects changed files, adds the sources
// that recorded relations into them, deletes their old data and records
// source rows. Returns the items to load.
func (e *Engine) prepareSources(script string, paths []string, force bool) ([]*importItem, error) {
	var items []*importItem
	queued := make(map[string]bool, len(paths))
	var changed []int64
	for _, path := range paths {
		item, skip, err := e.prepareSource(path, script, force)
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			continue
		}
		items = append(items, item)
		queued[path] = true
		if item.existing != nil {
			changed = append(changed, item.existing.ID)
		}
	}

	deps, err := e.dependentSources(changed)
	if err != nil {
		return nil, fmt.Errorf("find dependents: %w", err)
	}
	for _, d := range deps {
		if queued[d.Path] {
			continue
		}
		loader, ok := store.LoaderOf(d.Format)
		if !ok {
			return nil, fmt.Errorf("source %s has relations into a changed file but no loader script", d.Path)
		}
		item, _, err := e.prepareSource(d.Path, loader, true)
		if err != nil {
			return nil, fmt.Errorf("prepare dependent %s: %w", d.Path, err)
		}
		items = append(items, item)
		queued[d.Path] = true
	}

	var old []int64
	for _, item := range items {
		if item.existing != nil {
			old = append(old, item.existing.ID)
		}
	}
	if err := e.store.DeleteSourcesData(old); err != nil {
		return nil, fmt.Errorf("delete old data: %w", err)
	}

	for _, item := range items {
		item.source = &store.Source{
			Path:       item.path,
			Hash:       item.hash,
			Format:     store.ScriptFormat(item.loader),
			ImportedAt: time.Now(),
		}
		if err := e.upsertSource(item.existing, item.source); err != nil {
			return nil, fmt.Errorf("record source %s: %w", item.path, err)
		}
	}
	return items, nil
}

// prepareSource hashes one file. Returns (item, skip, error); skip=true
// means the file is unchanged or no loader handles it.
func (e *Engine) prepareSource(path, loader string, force bool) (*importItem, bool, error) {
	if loader == "" {
		name, ok := runtime.LoaderForFile(path)
		if !ok {
			e.logf("import: skip %s: no loader for extension", path)
			return nil, true, nil
		}
		loader = name
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ComputeContentHash(content)

	existing, err := e.store.SourceByPath(path)
	if err != nil {
		return nil, false, fmt.Errorf("lookup source: %w", err)
	}
	if existing != nil && !force && existing.Hash == hash && existing.Format == store.ScriptFormat(loader) {
		return nil, true, nil // unchanged
	}
	return &importItem{path: path, loader: loader, hash: hash, existing: existing}, false, nil
}

// resolvePending inserts relations deferred during loading, now that every
// batch is committed, in one transaction.
func (e *Engine) resolvePending(pending []runtime.PendingRelation) []error {
	if len(pending) == 0 {
		return nil
	}
	var errs []error
	batch := store.NewBatchedStore(e.store)
	for _, p := range pending {
		src, err := e.store.SenseByKey(p.SourceKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("relation %s -> %s: %w", p.SourceKey, p.TargetKey, err))
			continue
		}
		dst, err := e.store.SenseByKey(p.TargetKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("relation %s -> %s: %w", p.SourceKey, p.TargetKey, err))
			continue
		}
		if src == nil || dst == nil {
			missing := p.SourceKey
			if src != nil {
				missing = p.TargetKey
			}
			errs = append(errs, fmt.Errorf("relation %s -> %s: unknown sense %q", p.SourceKey, p.TargetKey, missing))
			continue
		}
		if _, err := batch.InsertRelation(&store.Relation{
			SourceID:      p.Owner,
			SourceSenseID: src.ID,
			TargetSenseID: dst.ID,
			Kind:          p.Kind,
		}); err != nil {
			errs = append(errs, fmt.Errorf("relation %s -> %s: %w", p.SourceKey, p.TargetKey, err))
		}
	}
	if err := e.store.CommitBatch(batch); err != nil {
		errs = append(errs, fmt.Errorf("commit deferred relations: %w", err))
	}
	return errs
}
