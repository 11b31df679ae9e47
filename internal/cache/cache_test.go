package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spboyer/forge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateKey(t *testing.T) {
	key1, err := CandidateKey("Team A|llm|gpt-4o|0.7", "noir", "a missing cat")
	require.NoError(t, err)
	assert.Len(t, key1, 64) // SHA256 hex is 64 chars

	// Same inputs should produce same key
	key2, err := CandidateKey("Team A|llm|gpt-4o|0.7", "noir", "a missing cat")
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	others := [][3]string{
		{"Team A|llm|gpt-4o|0.9", "noir", "a missing cat"},
		{"Team A|llm|gpt-4o|0.7", "fantasy", "a missing cat"},
		{"Team A|llm|gpt-4o|0.7", "noir", "a missing dog"},
		// field boundaries matter
		{"Team A|llm|gpt-4o|0.7noir", "", "a missing cat"},
	}
	for _, o := range others {
		k, err := CandidateKey(o[0], o[1], o[2])
		require.NoError(t, err)
		assert.NotEqual(t, key1, k, "%v", o)
	}
}

func TestCache_GetPut(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache"))

	key := "test-key-123"
	candidate := &models.Candidate{
		Name:                "Team A",
		Title:               "The Door",
		MainCharacters:      []models.Character{{Name: "Ada", Role: "lead"}},
		EstimatedComplexity: 7,
	}

	// Cache miss
	retrieved, found := c.Get(key)
	assert.False(t, found)
	assert.Nil(t, retrieved)

	require.NoError(t, c.Put(key, candidate))

	// Cache hit
	retrieved, found = c.Get(key)
	require.True(t, found)
	assert.Equal(t, candidate, retrieved)
	assert.Equal(t, 1, c.Len())
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0644))

	_, found := c.Get("bad")
	assert.False(t, found)
}

func TestCache_Clear(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)

	candidate := &models.Candidate{Name: "Team A", EstimatedComplexity: 1}
	require.NoError(t, c.Put("key1", candidate))
	require.NoError(t, c.Put("key2", candidate))

	require.NoError(t, c.Clear())

	_, found := c.Get("key1")
	assert.False(t, found)

	// Directory should not exist
	_, err := os.Stat(cacheDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_ClearRefusesForeignFiles(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "notes.txt"), []byte("mine"), 0644))

	err := New(cacheDir).Clear()
	require.ErrorContains(t, err, "refusing to delete")

	_, err = os.Stat(filepath.Join(cacheDir, "notes.txt"))
	assert.NoError(t, err)
}

func TestCache_EmptyDir(t *testing.T) {
	c := New("")

	_, found := c.Get("any-key")
	assert.False(t, found)

	// Put should be no-op
	assert.NoError(t, c.Put("key", &models.Candidate{Name: "Team A"}))
	assert.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentPut(t *testing.T) {
	c := New(t.TempDir())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Put(fmt.Sprintf("key-%d", i), &models.Candidate{Name: fmt.Sprintf("Team %d", i)}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}
