package tablestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(t *testing.T, digest string) *automaton.Document {
	t.Helper()
	pool := regex.NewPool()
	table, err := automaton.Compile(context.Background(), []automaton.TokenDefinition{
		{Class: "word", Order: 0, Regex: pool.OneOrMore(pool.Class(charset.Of(charset.MustRange('a', 'z'))))},
	})
	require.NoError(t, err)
	return table.Document(automaton.Metadata{Grammar: "words.lex", Digest: digest})
}

func digestOf(c byte) string {
	return strings.Repeat(string(c), 64)
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	digest := digestOf('a')

	_, ok, err := store.Get(ctx, digest)
	require.NoError(t, err)
	assert.False(t, ok)

	doc := testDocument(t, digest)
	require.NoError(t, store.Put(ctx, digest, doc))

	got, ok, err := store.Get(ctx, digest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc.ID, got.ID)

	table, err := got.Table()
	require.NoError(t, err)
	assert.Equal(t, []string{"word"}, table.Classes)

	_, _, err = store.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidDigest)
	assert.ErrorIs(t, store.Put(ctx, "UPPER", doc), ErrInvalidDigest)
}

func TestMemoryStore(t *testing.T) {
	store, err := Open(Config{Backend: "memory", Size: 4})
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestMemoryStoreEvicts(t *testing.T) {
	store, err := NewMemoryStore(1)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, digestOf('a'), testDocument(t, digestOf('a'))))
	require.NoError(t, store.Put(ctx, digestOf('b'), testDocument(t, digestOf('b'))))
	assert.Equal(t, 1, store.Len())

	_, ok, err := store.Get(ctx, digestOf('a'))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")
	store, err := Open(Config{Backend: "dir", Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, digestOf('a')+".json", entries[0].Name())
}

func TestDirStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, digestOf('c')+".json"), []byte("{not json"), 0o644))
	_, _, err = store.Get(context.Background(), digestOf('c'))
	assert.Error(t, err)
}

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(Config{Backend: "dir"})
	assert.Error(t, err)

	_, err = Open(Config{Backend: "redis"})
	assert.Error(t, err)

	_, err = Open(Config{Backend: "s3"})
	assert.Error(t, err)

	store, err := Open(Config{Backend: "redis", RedisAddr: "localhost:6379"})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
