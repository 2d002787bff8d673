package main_test

import (
	"database/sql"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the lexgraph binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "lexgraph"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "lexgraph")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the module by walking up from the test
// file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

const fixtureLexicon = `S	entity.n.01	n	entity
S	vehicle.n.01	n	vehicle
S	car.n.01	n	car,auto,automobile	a motor vehicle
S	sedan.n.01	n	sedan,saloon
S	plant.n.02	n	plant,flora
S	tree.n.01	n	tree
H	vehicle.n.01	entity.n.01
H	car.n.01	vehicle.n.01
H	sedan.n.01	car.n.01
H	tree.n.01	plant.n.02
`

// createFixture creates a project directory with a .git dir and a lexicon
// file under lexicons/.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lexicons", "en"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lexicons", "en", "vehicles.tsv"), []byte(fixtureLexicon), 0o644))
	return dir
}

// run executes the binary in dir and returns stdout.
func run(t *testing.T, bin, dir string, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	return cmd.Output()
}

func importFixture(t *testing.T, bin, dir string) {
	t.Helper()
	cmd := exec.Command(bin, "import", "files", "lexicons/**/*.tsv")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "import failed: %s", string(out))
}

type envelope struct {
	Command    string          `json:"command"`
	Results    json.RawMessage `json:"results"`
	TotalCount *int            `json:"total_count"`
	Error      string          `json:"error"`
}

func decode(t *testing.T, out []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(out, &env), "output: %s", string(out))
	return env
}

func TestImport_CreatesDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)
	importFixture(t, bin, fixture)

	dbPath := filepath.Join(fixture, ".lexgraph", "lexicon.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var senses, relations int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM senses").Scan(&senses))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM relations").Scan(&relations))
	assert.Equal(t, 6, senses)
	assert.Equal(t, 4, relations)
}

func TestQuery_DistanceAndSimilarity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)
	importFixture(t, bin, fixture)

	out, err := run(t, bin, fixture, "query", "distance", "car", "sedan")
	require.NoError(t, err)
	env := decode(t, out)
	assert.Equal(t, "distance", env.Command)
	assert.JSONEq(t, `{
		"word1": "car", "word2": "sedan",
		"distance": {"status": "known", "value": 1, "senses": {"a": "car.n.01", "b": "sedan.n.01"}}
	}`, string(env.Results))

	out, err = run(t, bin, fixture, "query", "similarity", "car", "sedan")
	require.NoError(t, err)
	var sim struct {
		Similarity struct {
			Status string  `json:"status"`
			Value  float64 `json:"value"`
		} `json:"similarity"`
	}
	require.NoError(t, json.Unmarshal(decode(t, out).Results, &sim))
	assert.Equal(t, "known", sim.Similarity.Status)
	assert.InDelta(t, 0.8, sim.Similarity.Value, 1e-9)

	out, err = run(t, bin, fixture, "query", "distance", "car", "tree")
	require.NoError(t, err)
	assert.Contains(t, string(decode(t, out).Results), `"unreachable"`)
}

func TestQuery_Synonyms(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)
	importFixture(t, bin, fixture)

	out, err := run(t, bin, fixture, "query", "synonyms", "--tagger", "fields", "the", "car", "and", "the", "flibbertigibbet")
	require.NoError(t, err)
	env := decode(t, out)
	require.NotNil(t, env.TotalCount)
	assert.Equal(t, 2, *env.TotalCount)
	assert.JSONEq(t, `[
		{"word": "car", "sense": "car.n.01", "synonyms": ["auto", "automobile"]},
		{"word": "flibbertigibbet", "synonyms": [], "unresolved": true}
	]`, string(env.Results))
}

func TestQuery_TextFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)
	importFixture(t, bin, fixture)

	out, err := run(t, bin, fixture, "--format", "text", "query", "senses", "automobile")
	require.NoError(t, err)
	assert.Contains(t, string(out), "car.n.01")
	assert.Contains(t, string(out), "a motor vehicle")

	out, err = run(t, bin, fixture, "--format", "text", "query", "stats")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Senses:    6")
}

func TestQuery_ConfigFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(fixture, ".lexgraph.toml"), []byte(`
db = "data/lex.db"
format = "text"
`), 0o644))
	importFixture(t, bin, fixture)

	_, err := os.Stat(filepath.Join(fixture, "data", "lex.db"))
	require.NoError(t, err)

	out, err := run(t, bin, fixture, "query", "distance", "car", "entity")
	require.NoError(t, err)
	assert.Equal(t, "car entity: 2 (car.n.01 ~ entity.n.01)\n", string(out))

	// Flags override the file.
	out, err = run(t, bin, fixture, "--format", "json", "query", "stats")
	require.NoError(t, err)
	assert.Equal(t, "stats", decode(t, out).Command)
}

func TestQuery_Errors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)

	out, err := run(t, bin, fixture, "query", "stats")
	require.Error(t, err)
	env := decode(t, out)
	assert.Equal(t, "stats", env.Command)
	assert.Contains(t, env.Error, "database not found")

	importFixture(t, bin, fixture)
	out, err = run(t, bin, fixture, "query", "senses", "zzyzx")
	require.Error(t, err)
	assert.Contains(t, decode(t, out).Error, `unknown word "zzyzx"`)

	_, err = run(t, bin, fixture, "--format", "yaml", "query", "stats")
	require.Error(t, err)
}
