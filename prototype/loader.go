package prototype

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"

	protoform "github.com/protoform/protoform"
)

// Policy selects how the loader treats a file or prototype that fails to
// parse or decode.
type Policy int

const (
	// ExcludeNode logs the failure, drops the affected file or prototype, and
	// keeps loading. This is the hot-reload friendly default.
	ExcludeNode Policy = iota
	// Abort stops the whole load on the first failure.
	Abort
)

// Decoder turns raw file bytes into a document mapping. source/yaml and
// source/json both provide compatible functions.
type Decoder func(data []byte) (*protoform.Mapping, error)

// LoadOpt bundles loader options.
type LoadOpt struct {
	Policy  Policy
	Workers int          // Parallel parse workers; 0 means a small default.
	Logger  *slog.Logger // Nil silences the loader.
}

// Loader performs two-phase bulk loading into a Store: files are read and
// decoded fully in parallel (parsing shares no mutable state), then the
// single-threaded Resync merge runs once every node is known.
type Loader[T any] struct {
	store  *Store[T]
	decode Decoder
	opt    LoadOpt
}

// NewLoader wires a loader onto a store.
func NewLoader[T any](store *Store[T], decode Decoder, opt LoadOpt) *Loader[T] {
	if opt.Workers <= 0 {
		opt.Workers = 4
	}
	return &Loader[T]{store: store, decode: decode, opt: opt}
}

// fileResult is the outcome of the parallel phase for one file. Each file is
// a mapping of prototype id -> prototype document, with the reserved
// "inherit" key naming the parent.
type fileResult struct {
	path string
	doc  *protoform.Mapping
	err  error
}

// LoadFiles loads every path, registers the contained prototypes, and
// resyncs. Failure isolation is per file for parse errors and per prototype
// for decode errors; under the Abort policy the first failure stops the load
// and the published table is left untouched.
func (l *Loader[T]) LoadFiles(ctx context.Context, paths []string) (*Report, error) {
	results := make([]fileResult, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, l.opt.Workers)
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = l.loadFile(p)
		}(i, p)
	}
	wg.Wait()

	var loadIssues protoform.Issues
	seen := map[string]bool{}
	for _, res := range results {
		if res.err != nil {
			if l.opt.Policy == Abort {
				return nil, res.err
			}
			l.logf("excluding file", "path", res.path, "error", res.err)
			loadIssues = protoform.AppendIssues(loadIssues, protoform.Issues{{
				Path: "/" + res.path, Code: protoform.CodeParseError,
				Message: res.err.Error(), Cause: res.err,
			}}...)
			continue
		}
		if err := l.registerFile(ctx, res, seen, &loadIssues); err != nil {
			return nil, err
		}
	}

	rep, err := l.store.Resync(ctx)
	if err != nil {
		return nil, err
	}
	rep.Issues = protoform.AppendIssues(loadIssues, rep.Issues...)
	return rep, nil
}

func (l *Loader[T]) loadFile(path string) fileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	doc, err := l.decode(data)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	return fileResult{path: path, doc: doc}
}

// registerFile registers every prototype of one parsed file, honoring the
// exclude/abort policy per prototype. seen spans the whole batch so an id
// declared in two files is registered once; the first declaration wins and
// the duplicate is surfaced as a finding.
func (l *Loader[T]) registerFile(ctx context.Context, res fileResult, seen map[string]bool, iss *protoform.Issues) error {
	for _, e := range res.doc.Entries() {
		if seen[e.Key] {
			it := protoform.NewIssue("/"+e.Key, protoform.CodeDuplicateID)
			it.Hint = "also declared in " + res.path
			if l.opt.Policy == Abort {
				return protoform.Issues{it}
			}
			l.logf("excluding duplicate prototype", "id", e.Key, "path", res.path)
			*iss = protoform.AppendIssues(*iss, it)
			continue
		}
		seen[e.Key] = true

		sub, ok := e.Value.(*protoform.Mapping)
		if !ok {
			it := protoform.NewIssue("/"+e.Key, protoform.CodeInvalidType)
			it.Hint = "prototype body must be a mapping"
			if l.opt.Policy == Abort {
				return protoform.Issues{it}
			}
			l.logf("excluding prototype", "id", e.Key, "path", res.path, "error", it.Message)
			*iss = protoform.AppendIssues(*iss, it)
			continue
		}
		if err := l.store.RegisterDocument(ctx, e.Key, sub); err != nil {
			if l.opt.Policy == Abort {
				return err
			}
			l.logf("excluding prototype", "id", e.Key, "path", res.path, "error", err)
			*iss = protoform.AppendIssues(*iss, prefixIssues(e.Key, err)...)
		}
	}
	return nil
}

// LoadDir is LoadFiles over every regular file in dir with one of the given
// extensions (e.g. ".yaml"), in name order.
func (l *Loader[T]) LoadDir(ctx context.Context, dir string, exts ...string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(exts) == 0 || hasExt(e.Name(), exts) {
			paths = append(paths, dir+string(os.PathSeparator)+e.Name())
		}
	}
	sort.Strings(paths)
	return l.LoadFiles(ctx, paths)
}

func hasExt(name string, exts []string) bool {
	for _, ext := range exts {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return true
		}
	}
	return false
}

func (l *Loader[T]) logf(msg string, args ...any) {
	if l.opt.Logger != nil {
		l.opt.Logger.Warn(msg, args...)
	}
}
