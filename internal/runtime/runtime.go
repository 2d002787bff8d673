package runtime

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/lexgraph/internal/store"
)

// Runtime embeds a Risor VM and gives loader scripts record reading and
// DataStore access.
type Runtime struct {
	store      store.DataStore
	scriptsDir string
	fsys       fs.FS
	logOut     io.Writer

	mu      sync.Mutex
	pending []PendingRelation
}

// PendingRelation is a relation whose endpoint keys were not known when
// the script recorded it. The engine resolves these once every source
// has been committed.
type PendingRelation struct {
	SourceKey string
	TargetKey string
	Kind      string
	// Owner is the source that recorded the relation, if any.
	Owner *int64
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogOutput directs the scripts' log object. Defaults to stderr.
func WithLogOutput(w io.Writer) RuntimeOption {
	return func(r *Runtime) {
		r.logOut = w
	}
}

// NewRuntime creates a Runtime writing to ds and loading scripts from
// scriptsDir. ds may be nil for scripts that only read.
func NewRuntime(ds store.DataStore, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      ds,
		scriptsDir: scriptsDir,
		logOut:     os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pending returns the relations deferred so far.
func (r *Runtime) Pending() []PendingRelation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PendingRelation(nil), r.pending...)
}

func (r *Runtime) deferRelation(p PendingRelation) {
	r.mu.Lock()
	r.pending = append(r.pending, p)
	r.mu.Unlock()
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code, from the
// fs.FS when one is configured and from scriptsDir otherwise.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// LoaderScriptPath returns the path of a named loader script.
func LoaderScriptPath(name string) string {
	return filepath.Join("load", name+".risor")
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"read_records": makeReadRecordsFn(),
		"log":          mustProxy(&logObject{prefix: "lexgraph", out: r.logOut}),
	}

	if r.store != nil {
		// Risor cannot construct Go struct pointers, so these accept maps
		// and build the structs Go-side.
		globals["insert_sense"] = makeInsertSenseFn(r.store)
		globals["add_lemma"] = makeAddLemmaFn(r.store)
		globals["insert_relation"] = makeInsertRelationFn(r.store, r.deferRelation)
		globals["sense_by_key"] = makeSenseByKeyFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
