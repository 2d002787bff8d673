package runtime

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/risor-io/risor/object"
)

// maxRecordLine bounds a single record line; WordNet-style glosses can
// run long.
const maxRecordLine = 1 << 20

// makeReadRecordsFn creates the "read_records" host function.
//
// read_records(path, sep) → [][]string
//
// Blank lines and lines starting with "#" are skipped. Fields are split on
// sep ("\t" when omitted) and trimmed of surrounding whitespace. Reading
// and splitting happen Go-side so large lexicons don't go through the
// Risor string builtins line by line.
func makeReadRecordsFn() *object.Builtin {
	return object.NewBuiltin("read_records", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsRangeError("read_records", 1, 2, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("read_records: path: %v", err)
		}
		sep := "\t"
		if len(args) == 2 {
			if sep, err = toString(args[1]); err != nil {
				return object.Errorf("read_records: sep: %v", err)
			}
		}

		f, err := os.Open(path)
		if err != nil {
			return object.Errorf("read_records: %v", err)
		}
		defer f.Close()

		records, err := readRecords(ctx, f, sep)
		if err != nil {
			return object.Errorf("read_records: %s: %v", path, err)
		}
		out := make([]object.Object, len(records))
		for i, rec := range records {
			fields := make([]object.Object, len(rec))
			for j, field := range rec {
				fields[j] = object.NewString(field)
			}
			out[i] = object.NewList(fields)
		}
		return object.NewList(out)
	})
}

func readRecords(ctx context.Context, r io.Reader, sep string) ([][]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxRecordLine)
	var records [][]string
	line := 0
	for sc.Scan() {
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Split(text, sep)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		records = append(records, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return records, nil
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	prefix string
	out    io.Writer
}

func (l *logObject) Info(msg string) {
	fmt.Fprintf(l.out, "[%s] INFO: %s\n", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	fmt.Fprintf(l.out, "[%s] WARN: %s\n", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	fmt.Fprintf(l.out, "[%s] ERROR: %s\n", l.prefix, msg)
}
