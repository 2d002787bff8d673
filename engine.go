package lexgraph

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fluhus/gostuff/nlp/wordnet"

	"github.com/jward/lexgraph/internal/runtime"
	"github.com/jward/lexgraph/internal/store"
	"github.com/jward/lexgraph/internal/taxonomy"
	"github.com/jward/lexgraph/internal/wnimport"
)

// scriptsHashKey is the metadata key holding the loader scripts' hash.
const scriptsHashKey = "scripts_hash"

// Engine orchestrates the lexgraph pipeline: importing lexical resources
// into the lexicon database and loading the taxonomy graph from it.
type Engine struct {
	store      *store.Store
	scriptsDir string
	scriptsFS  fs.FS
	logger     *log.Logger

	// useParallel enables the parallel import pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithScriptsFS configures the Engine to load Risor loader scripts from
// the given filesystem instead of from the scripts directory on disk. This
// enables embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithScriptsDir sets the directory loader scripts are read from when no
// fs.FS is configured.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithLogger receives import progress and loader script log output.
// A nil logger (the default) discards it.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithParallel controls parallel imports. When true (default), ImportFiles
// runs loader scripts on a worker pool, with batches committed to SQLite
// by a single writer. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// New creates an Engine backed by a SQLite database at dbPath, creating
// and migrating it as needed.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("lexgraph: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("lexgraph: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Stats counts the rows of the lexicon database.
func (e *Engine) Stats() (Stats, error) {
	return e.store.Stats()
}

// Reset deletes every source, sense, lemma and relation.
func (e *Engine) Reset() error {
	if err := e.store.DeleteAll(); err != nil {
		return fmt.Errorf("lexgraph: reset: %w", err)
	}
	return nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// logWriter forwards loader script output to the Engine's logger one
// line at a time.
type logWriter struct {
	l *log.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.l.Print(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// newRuntime builds a loader script Runtime writing to ds.
func (e *Engine) newRuntime(ds store.DataStore) *runtime.Runtime {
	var out io.Writer = io.Discard
	if e.logger != nil {
		out = logWriter{e.logger}
	}
	rtOpts := []runtime.RuntimeOption{runtime.WithLogOutput(out)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	return runtime.NewRuntime(ds, e.scriptsDir, rtOpts...)
}

// scriptsHash fingerprints every .risor file in the scripts FS or
// directory.
func (e *Engine) scriptsHash() string {
	files := make(map[string][]byte)
	collect := func(fsys fs.FS) {
		fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				if data, err := fs.ReadFile(fsys, path); err == nil {
					files[path] = data
				}
			}
			return nil
		})
	}
	switch {
	case e.scriptsFS != nil:
		collect(e.scriptsFS)
	case e.scriptsDir != "":
		collect(os.DirFS(e.scriptsDir))
	}
	return store.ComputeSetHash(files)
}

// ScriptsChanged reports whether the loader scripts differ from the ones
// that produced the current script sources. Returns true if the database
// has no stored hash.
func (e *Engine) ScriptsChanged() bool {
	stored, err := e.store.GetMetadata(scriptsHashKey)
	if err != nil || stored == "" {
		return true
	}
	return stored != e.scriptsHash()
}

func (e *Engine) storeScriptsHash() {
	if err := e.store.SetMetadata(scriptsHashKey, e.scriptsHash()); err != nil {
		e.logf("store scripts hash: %v", err)
	}
}

// ImportWordNet imports a WordNet dict directory. An unchanged directory
// is skipped. When the directory changed, sources with edges into the
// previous import are re-imported afterwards.
func (e *Engine) ImportWordNet(ctx context.Context, dictDir string) error {
	start := time.Now()
	abs, err := filepath.Abs(dictDir)
	if err != nil {
		return fmt.Errorf("lexgraph: import wordnet: %w", err)
	}
	hash, err := hashDictDir(abs)
	if err != nil {
		return fmt.Errorf("lexgraph: import wordnet: %w", err)
	}

	existing, err := e.store.SourceByPath(abs)
	if err != nil {
		return fmt.Errorf("lexgraph: import wordnet: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		e.logf("wordnet %s unchanged", abs)
		return nil
	}

	wn, err := wordnet.Parse(abs)
	if err != nil {
		return fmt.Errorf("lexgraph: parse wordnet %s: %w", abs, err)
	}

	var dependents []*store.Source
	if existing != nil {
		dependents, err = e.dependentSources([]int64{existing.ID})
		if err != nil {
			return fmt.Errorf("lexgraph: import wordnet: %w", err)
		}
		ids := []int64{existing.ID}
		for _, d := range dependents {
			ids = append(ids, d.ID)
		}
		if err := e.store.DeleteSourcesData(ids); err != nil {
			return fmt.Errorf("lexgraph: import wordnet: delete old data: %w", err)
		}
	}

	src := &store.Source{Path: abs, Hash: hash, Format: store.FormatWordNet, ImportedAt: time.Now()}
	if err := e.upsertSource(existing, src); err != nil {
		return fmt.Errorf("lexgraph: import wordnet: %w", err)
	}

	batch := store.NewBatchedStore(e.store)
	sum, err := wnimport.Import(ctx, wn, batch, &src.ID)
	if err == nil {
		if err = e.store.CommitBatch(batch); err != nil {
			err = fmt.Errorf("commit: %w", err)
		}
	}
	if err != nil {
		// Dependents already lost their data; they retry with the dictionary.
		e.resetSources(append([]*store.Source{src}, dependents...))
		return fmt.Errorf("lexgraph: import wordnet: %w", err)
	}
	e.logf("wordnet %s: %d senses, %d lemmas, %d relations (%d dangling pointers) in %s",
		abs, sum.Senses, sum.Lemmas, sum.Relations, sum.Dangling, time.Since(start).Round(time.Millisecond))

	if len(dependents) == 0 {
		return nil
	}
	var paths []string
	for _, d := range dependents {
		paths = append(paths, d.Path)
	}
	if err := e.importPaths(ctx, "", paths, true); err != nil {
		return fmt.Errorf("lexgraph: re-import dependents: %w", err)
	}
	return nil
}

// hashDictDir fingerprints the regular files of a WordNet dict directory.
func hashDictDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	files := make(map[string][]byte)
	for _, ent := range entries {
		if !ent.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return "", err
		}
		files[ent.Name()] = data
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%s: no dict files", dir)
	}
	return store.ComputeSetHash(files), nil
}

// ImportFiles imports every file matching patterns (doublestar globs)
// with the named loader script. An empty script picks the loader from
// each file's extension. Unchanged files are skipped unless the loader
// scripts changed since the last import.
func (e *Engine) ImportFiles(ctx context.Context, script string, patterns []string) error {
	paths, err := expandPatterns(patterns)
	if err != nil {
		return fmt.Errorf("lexgraph: import files: %w", err)
	}
	if err := e.importPaths(ctx, script, paths, e.ScriptsChanged()); err != nil {
		return err
	}
	e.storeScriptsHash()
	return nil
}

// expandPatterns resolves glob patterns to a sorted, de-duplicated list of
// absolute file paths.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matched no files", pattern)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, abs)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// dependentSources returns the sources, other than ids, holding relations
// into the senses of ids, transitively.
func (e *Engine) dependentSources(ids []int64) ([]*store.Source, error) {
	all, err := e.store.Sources()
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*store.Source, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}

	visited := make(map[int64]bool, len(ids))
	for _, id := range ids {
		visited[id] = true
	}
	var out []*store.Source
	queue := append([]int64(nil), ids...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		deps, err := e.store.SourcesDependingOn(id)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if visited[d] {
				continue
			}
			visited[d] = true
			if src, ok := byID[d]; ok {
				out = append(out, src)
				queue = append(queue, d)
			}
		}
	}
	return out, nil
}

func (e *Engine) upsertSource(existing, src *store.Source) error {
	if existing == nil {
		_, err := e.store.InsertSource(src)
		return err
	}
	src.ID = existing.ID
	return e.store.UpdateSource(src)
}

// Load reads the lexicon database and builds the taxonomy graph. It fails
// with a *LoadError when the database is empty or inconsistent.
func (e *Engine) Load(ctx context.Context) (*Graph, error) {
	start := time.Now()
	senses, err := e.store.Senses()
	if err != nil {
		return nil, fmt.Errorf("load: read senses: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lemmas, err := e.store.SenseLemmas()
	if err != nil {
		return nil, fmt.Errorf("load: read lemmas: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rels, err := e.store.Relations()
	if err != nil {
		return nil, fmt.Errorf("load: read relations: %w", err)
	}

	b := taxonomy.NewBuilder()
	ids := make(map[int64]taxonomy.SenseID, len(senses))
	keys := make(map[int64]string, len(senses))
	for _, s := range senses {
		pos, err := taxonomy.ParsePOS(s.POS)
		if err != nil {
			// Still added, so its lemmas and edges do not report twice.
			b.AddProblem("sense %q: %v", s.Key, err)
		}
		ids[s.ID] = b.AddSense(s.Key, pos, s.Gloss)
		keys[s.ID] = s.Key
	}
	for _, l := range lemmas {
		b.AddLemma(ids[l.SenseID], l.Lemma, l.Rank)
	}
	for _, r := range rels {
		b.AddGeneralization(keys[r.SourceSenseID], keys[r.TargetSenseID])
	}

	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	e.logf("loaded %d senses, %d lemma memberships, %d relations in %s",
		len(senses), len(lemmas), len(rels), time.Since(start).Round(time.Millisecond))
	return g, nil
}
