package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/compiler"
	"github.com/lexgen/lexgen/tablestore"
	"go.uber.org/zap"
)

// loadedTable is a table together with its exported form.
type loadedTable struct {
	Table    *automaton.Table
	Document *automaton.Document
	Cached   bool
}

func newCompiler() *compiler.Compiler {
	return compiler.NewCompiler(
		compiler.WithLogger(logger),
		compiler.WithBuildOptions(settings.BuildOptions(logger)...),
	)
}

func openStore() (tablestore.Store, error) {
	store, err := tablestore.Open(settings.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("opening table cache: %w", err)
	}
	return store, nil
}

// isTableFile reports whether path names an exported table rather than a
// grammar.
func isTableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// loadTable reads an exported table, or compiles a grammar through store.
// store may be nil.
func loadTable(ctx context.Context, comp *compiler.Compiler, store tablestore.Store, path string) (*loadedTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if isTableFile(path) {
		doc, err := automaton.Decode(bytes.NewReader(data), automaton.FormatFromPath(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		table, err := doc.Table()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &loadedTable{Table: table, Document: doc}, nil
	}
	return compileSource(ctx, comp, store, path, data)
}

// compileSource compiles grammar source, reusing a cached table when one
// with the same digest exists.
func compileSource(ctx context.Context, comp *compiler.Compiler, store tablestore.Store, name string, data []byte) (*loadedTable, error) {
	file, err := comp.ParseBytes(name, data)
	if err != nil {
		return nil, err
	}
	defs, err := comp.Resolve(file)
	if err != nil {
		return nil, err
	}
	digest := compiler.Digest(defs)

	if store != nil {
		doc, ok, err := store.Get(ctx, digest)
		switch {
		case err != nil:
			logger.Warn("table cache lookup failed", zap.String("digest", digest), zap.Error(err))
		case ok:
			table, err := doc.Table()
			if err == nil {
				logger.Debug("table cache hit", zap.String("grammar", name), zap.String("digest", digest))
				return &loadedTable{Table: table, Document: doc, Cached: true}, nil
			}
			logger.Warn("cached table is invalid", zap.String("digest", digest), zap.Error(err))
		}
	}

	result, err := comp.Build(ctx, file, defs)
	if err != nil {
		return nil, err
	}
	doc := result.Document(filepath.Base(name))
	if store != nil {
		if err := store.Put(ctx, digest, doc); err != nil {
			logger.Warn("table cache store failed", zap.String("digest", digest), zap.Error(err))
		}
	}
	return &loadedTable{Table: result.Table, Document: doc}, nil
}

func outputBytes(data []byte, output string) error {
	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0644)
}
