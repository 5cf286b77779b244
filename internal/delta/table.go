package delta

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dev-tams/deltapurge/internal/storage/prunable"
)

const logDir = "_delta_log/"

// Store is the read side of a storage backend.
type Store interface {
	List(ctx context.Context, prefix string) ([]prunable.ObjectInfo, error)
	ReadObject(ctx context.Context, key string) ([]byte, error)
}

var (
	commitName     = regexp.MustCompile(`^(\d{20})\.json$`)
	checkpointName = regexp.MustCompile(`^(\d{20})\.checkpoint\.parquet$`)
	multipartName  = regexp.MustCompile(`^(\d{20})\.checkpoint\.(\d{10})\.(\d{10})\.parquet$`)
)

// Table is a replayed snapshot of a Delta table at its latest version.
type Table struct {
	store      Store
	root       string
	version    int64
	files      map[string]AddFile
	tombstones map[string]RemoveFile
	metadata   Metadata
}

type checkpointParts struct {
	total int
	keys  map[int]string
}

func (c *checkpointParts) complete() bool {
	return c.total > 0 && len(c.keys) == c.total
}

func (c *checkpointParts) ordered() []string {
	out := make([]string, 0, c.total)
	for i := 1; i <= c.total; i++ {
		out = append(out, c.keys[i])
	}
	return out
}

// Open replays the log under root, a key prefix that is empty or ends in "/".
func Open(ctx context.Context, store Store, root string) (*Table, error) {
	logPrefix := root + logDir
	objects, err := store.List(ctx, logPrefix)
	if err != nil {
		return nil, &TableAccessError{Root: root, Err: err}
	}

	commits := make(map[int64]string)
	checkpoints := make(map[int64]*checkpointParts)
	latest := int64(-1)

	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, logPrefix)
		if strings.Contains(name, "/") {
			continue
		}

		if m := commitName.FindStringSubmatch(name); m != nil {
			v, _ := strconv.ParseInt(m[1], 10, 64)
			commits[v] = obj.Key
			latest = max(latest, v)
			continue
		}
		if m := checkpointName.FindStringSubmatch(name); m != nil {
			v, _ := strconv.ParseInt(m[1], 10, 64)
			checkpoints[v] = &checkpointParts{total: 1, keys: map[int]string{1: obj.Key}}
			latest = max(latest, v)
			continue
		}
		if m := multipartName.FindStringSubmatch(name); m != nil {
			v, _ := strconv.ParseInt(m[1], 10, 64)
			part, _ := strconv.Atoi(m[2])
			total, _ := strconv.Atoi(m[3])
			cp, ok := checkpoints[v]
			if !ok || cp.total != total {
				if ok && cp.complete() {
					continue
				}
				cp = &checkpointParts{total: total, keys: make(map[int]string)}
				checkpoints[v] = cp
			}
			if part >= 1 && part <= total {
				cp.keys[part] = obj.Key
			}
			latest = max(latest, v)
		}
	}

	if latest < 0 {
		return nil, &TableAccessError{Root: root, Err: ErrNotATable}
	}

	t := &Table{
		store:      store,
		root:       root,
		version:    -1,
		files:      make(map[string]AddFile),
		tombstones: make(map[string]RemoveFile),
	}

	start := newestCompleteCheckpoint(checkpoints)
	if start >= 0 {
		for _, key := range checkpoints[start].ordered() {
			data, err := store.ReadObject(ctx, key)
			if err != nil {
				return nil, &TableAccessError{Root: root, Err: fmt.Errorf("read %s: %w", key, err)}
			}
			actions, err := readCheckpoint(data)
			if err != nil {
				return nil, &TableAccessError{Root: root, Err: fmt.Errorf("%s: %w", key, err)}
			}
			t.apply(actions)
		}
		t.version = start
	}

	for v := start + 1; v <= latest; v++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, ok := commits[v]
		if !ok {
			return nil, &TableAccessError{Root: root, Err: fmt.Errorf("missing commit for version %d", v)}
		}
		data, err := store.ReadObject(ctx, key)
		if err != nil {
			return nil, &TableAccessError{Root: root, Err: fmt.Errorf("read %s: %w", key, err)}
		}
		actions, err := parseCommit(data)
		if err != nil {
			return nil, &TableAccessError{Root: root, Err: fmt.Errorf("%s: %w", key, err)}
		}
		t.apply(actions)
		t.version = v
	}

	return t, nil
}

func newestCompleteCheckpoint(checkpoints map[int64]*checkpointParts) int64 {
	versions := make([]int64, 0, len(checkpoints))
	for v := range checkpoints {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	for _, v := range versions {
		if checkpoints[v].complete() {
			return v
		}
	}
	return -1
}

func (t *Table) apply(actions []action) {
	for _, a := range actions {
		switch {
		case a.Add != nil:
			p, ok := relativePath(t.root, a.Add.Path)
			if !ok {
				continue
			}
			t.files[p] = *a.Add
			delete(t.tombstones, p)
		case a.Remove != nil:
			p, ok := relativePath(t.root, a.Remove.Path)
			if !ok {
				continue
			}
			delete(t.files, p)
			t.tombstones[p] = *a.Remove
		case a.MetaData != nil:
			t.metadata = *a.MetaData
		}
	}
}

// Version is the last replayed table version.
func (t *Table) Version() int64 { return t.version }

// Root is the table key prefix.
func (t *Table) Root() string { return t.root }

func (t *Table) Metadata() Metadata { return t.metadata }

// ActiveFiles returns the root-relative paths of every live data file, sorted.
func (t *Table) ActiveFiles() []string {
	out := make([]string, 0, len(t.files))
	for p := range t.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
