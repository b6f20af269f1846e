package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/grammar"
	"github.com/lexgen/lexgen/regex"
	"go.uber.org/zap"
)

// Compiler handles parsing, resolving and table construction for grammar
// files
type Compiler struct {
	parser    *participle.Parser[grammar.File]
	buildOpts []automaton.Option
	logger    *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithBuildOptions passes options through to automaton.Build.
func WithBuildOptions(opts ...automaton.Option) Option {
	return func(c *Compiler) {
		c.buildOpts = append(c.buildOpts, opts...)
	}
}

// WithLogger sets the logger used for compile progress.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Result is everything produced for one grammar.
type Result struct {
	File        *grammar.File
	Definitions []automaton.TokenDefinition
	Automaton   *automaton.Automaton
	Table       *automaton.Table
	Digest      string
}

// NewCompiler creates a new compiler
func NewCompiler(opts ...Option) *Compiler {
	parser, err := grammar.NewParser()
	if err != nil {
		// If we can't create the parser, panic since this is a fundamental error
		panic(fmt.Errorf("failed to create parser: %w", err))
	}

	c := &Compiler{
		parser: parser,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseFile parses a file into a grammar tree
func (c *Compiler) ParseFile(filename string) (*grammar.File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return c.ParseBytes(filename, data)
}

// ParseBytes parses grammar source held in memory
func (c *Compiler) ParseBytes(filename string, data []byte) (*grammar.File, error) {
	file, err := c.parser.ParseBytes(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// Resolve turns a parsed grammar into token definitions over a fresh pool
func (c *Compiler) Resolve(file *grammar.File) ([]automaton.TokenDefinition, error) {
	defs, err := grammar.Resolve(file, regex.NewPool())
	if err != nil {
		return nil, fmt.Errorf("resolve error: %w", err)
	}
	return defs, nil
}

// Compile parses, resolves and builds the table for a grammar file
func (c *Compiler) Compile(ctx context.Context, filename string) (*Result, error) {
	file, err := c.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return c.compileFile(ctx, file)
}

// CompileBytes is Compile for source held in memory
func (c *Compiler) CompileBytes(ctx context.Context, filename string, data []byte) (*Result, error) {
	file, err := c.ParseBytes(filename, data)
	if err != nil {
		return nil, err
	}
	return c.compileFile(ctx, file)
}

func (c *Compiler) compileFile(ctx context.Context, file *grammar.File) (*Result, error) {
	defs, err := c.Resolve(file)
	if err != nil {
		return nil, err
	}
	return c.Build(ctx, file, defs)
}

// Build constructs the table for definitions already resolved from file
func (c *Compiler) Build(ctx context.Context, file *grammar.File, defs []automaton.TokenDefinition) (*Result, error) {
	opts := append([]automaton.Option{automaton.WithLogger(c.logger)}, c.buildOpts...)
	a, err := automaton.Build(ctx, defs, opts...)
	if err != nil {
		return nil, fmt.Errorf("build error: %w", err)
	}

	result := &Result{
		File:        file,
		Definitions: defs,
		Automaton:   a,
		Table:       automaton.Label(a),
		Digest:      Digest(defs),
	}
	c.logger.Debug("grammar compiled",
		zap.String("file", file.Pos.Filename),
		zap.String("digest", result.Digest),
		zap.Int("states", len(result.Table.States)))
	return result, nil
}

// Digest fingerprints resolved definitions. Grammars that differ only in
// layout, comments or fragment names share a digest.
func Digest(defs []automaton.TokenDefinition) string {
	h := sha256.New()
	for _, def := range defs {
		io.WriteString(h, strconv.Itoa(def.Order))
		io.WriteString(h, "\t")
		io.WriteString(h, def.Class)
		io.WriteString(h, "\t")
		io.WriteString(h, def.Regex.String())
		io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Document exports a result's table with its provenance
func (r *Result) Document(grammarName string) *automaton.Document {
	return r.Table.Document(automaton.Metadata{Grammar: grammarName, Digest: r.Digest})
}
