package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"carpool/internal/repository"
)

// Locker serializes writers that may live in other processes.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// Option configures a table.
type Option func(*options)

type options struct {
	locker Locker
}

// WithLocker makes every mutation hold the named lock from l.
func WithLocker(l Locker) Option {
	return func(o *options) { o.locker = l }
}

// codec maps a row type to and from CSV records.
type codec[T any] struct {
	name     string
	header   []string
	required []string
	key      func(T) string
	encode   func(T) []string
	decode   func(field func(string) string) (T, error)
}

// entry is one data line of a table. Rows that failed to decode keep their
// raw record, and lines the CSV reader rejected keep their original bytes,
// so rewrites do not drop them.
type entry[T any] struct {
	row  T
	raw  []string
	text []byte
	bad  *repository.RowError
}

// table is a CSV file loaded fully on read and rewritten fully on write.
type table[T any] struct {
	mu      sync.Mutex
	backing Backing
	codec   codec[T]
	locker  Locker
}

func newTable[T any](b Backing, c codec[T], opts ...Option) *table[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &table[T]{backing: b, codec: c, locker: o.locker}
}

func (t *table[T]) list(ctx context.Context) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.read()
	if err != nil {
		return nil, err
	}
	return t.rows(entries)
}

// insert appends row unless its key, or any existing row for which conflict
// reports true, is already present.
func (t *table[T]) insert(ctx context.Context, row T, conflict func(T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	unlock, err := t.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := t.read()
	if err != nil {
		return err
	}

	key := t.codec.key(row)
	for _, e := range entries {
		if e.bad != nil {
			continue
		}
		if t.codec.key(e.row) == key || (conflict != nil && conflict(e.row)) {
			return repository.ErrAlreadyExists
		}
	}

	entries = append(entries, entry[T]{row: row})
	return t.write(entries)
}

func (t *table[T]) update(ctx context.Context, match func(T) bool, mutate func(*T), scope repository.Scope) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	unlock, err := t.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	entries, err := t.read()
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range entries {
		if entries[i].bad != nil || !match(entries[i].row) {
			continue
		}
		mutate(&entries[i].row)
		n++
		if scope == repository.First {
			break
		}
	}
	if n == 0 {
		return 0, repository.ErrNotFound
	}

	if err := t.write(entries); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *table[T]) lock(ctx context.Context) (func(), error) {
	if t.locker == nil {
		return func() {}, nil
	}
	unlock, err := t.locker.Lock(ctx, t.codec.name)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", t.codec.name, err)
	}
	return unlock, nil
}

func (t *table[T]) read() ([]entry[T], error) {
	rc, err := t.backing.Open()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.codec.name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.codec.name, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", t.codec.name, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		index[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range t.codec.required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", t.codec.name, repository.ErrBadHeader, strings.Join(missing, ", "))
	}

	var entries []entry[T]
	for {
		start := r.InputOffset()
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				text := append([]byte(nil), data[start:r.InputOffset()]...)
				entries = append(entries, entry[T]{text: text, bad: &repository.RowError{Line: pe.Line, Err: pe.Err}})
				continue
			}
			return nil, fmt.Errorf("read %s: %w", t.codec.name, err)
		}
		line, _ := r.FieldPos(0)

		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row, err := t.codec.decode(field)
		if err != nil {
			raw := make([]string, len(t.codec.header))
			for i, col := range t.codec.header {
				raw[i] = field(col)
			}
			entries = append(entries, entry[T]{raw: raw, bad: &repository.RowError{Line: line, Err: err}})
			continue
		}
		entries = append(entries, entry[T]{row: row})
	}
	return entries, nil
}

func (t *table[T]) rows(entries []entry[T]) ([]T, error) {
	out := make([]T, 0, len(entries))
	var bad []repository.RowError
	for _, e := range entries {
		if e.bad != nil {
			bad = append(bad, *e.bad)
			continue
		}
		out = append(out, e.row)
	}
	if len(bad) > 0 {
		return out, &repository.MalformedRowsError{Table: t.codec.name, Rows: bad}
	}
	return out, nil
}

func (t *table[T]) write(entries []entry[T]) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.codec.header); err != nil {
		return fmt.Errorf("encode %s header: %w", t.codec.name, err)
	}
	for _, e := range entries {
		if e.text != nil {
			w.Flush()
			buf.Write(e.text)
			if !bytes.HasSuffix(e.text, []byte("\n")) {
				buf.WriteByte('\n')
			}
			continue
		}
		rec := e.raw
		if e.bad == nil {
			rec = t.codec.encode(e.row)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("encode %s row: %w", t.codec.name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode %s: %w", t.codec.name, err)
	}

	if err := t.backing.Replace(buf.Bytes()); err != nil {
		return fmt.Errorf("persist %s: %w", t.codec.name, err)
	}
	return nil
}
