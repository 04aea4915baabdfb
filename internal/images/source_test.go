package images

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeImageTree lays out <root>/<label>/{real,fake} with the given counts.
func writeImageTree(t *testing.T, root, label string, realCount, fakeCount int) {
	t.Helper()
	for class, count := range map[string]int{"real": realCount, "fake": fakeCount} {
		dir := filepath.Join(root, label, class)
		require.NoError(t, os.MkdirAll(dir, 0755))
		for i := 0; i < count; i++ {
			path := filepath.Join(dir, class+string(rune('a'+i))+".jpg")
			require.NoError(t, os.WriteFile(path, []byte("img"), 0644))
		}
	}
}

func newTestSource(t *testing.T, root string, n int) *Source {
	t.Helper()
	return NewSource(root, n, rand.New(rand.NewSource(1)), zap.NewNop())
}

func TestListForCategory_Balanced(t *testing.T) {
	root := t.TempDir()
	writeImageTree(t, root, "L1", 10, 10)

	source := newTestSource(t, root, 8)
	items, degraded := source.ListForCategory("L1")

	assert.False(t, degraded)
	require.Len(t, items, 8)

	var realCount int
	for _, item := range items {
		if item.IsReal {
			realCount++
			assert.Contains(t, item.Path, "/images/L1/real/")
		} else {
			assert.Contains(t, item.Path, "/images/L1/fake/")
		}
	}
	assert.Equal(t, 4, realCount)
}

func TestListForCategory_ShortPoolNotToppedUp(t *testing.T) {
	root := t.TempDir()
	writeImageTree(t, root, "L1", 2, 10)

	source := newTestSource(t, root, 8)
	items, degraded := source.ListForCategory("L1")

	assert.False(t, degraded)
	// 2 real + 4 fake; the short real pool is not compensated with fakes.
	require.Len(t, items, 6)
	var realCount int
	for _, item := range items {
		if item.IsReal {
			realCount++
		}
	}
	assert.Equal(t, 2, realCount)
}

func TestListForCategory_SkipsNonImages(t *testing.T) {
	root := t.TempDir()
	writeImageTree(t, root, "L1", 3, 3)
	require.NoError(t, os.WriteFile(filepath.Join(root, "L1", "real", "notes.txt"), []byte("x"), 0644))

	source := newTestSource(t, root, 50)
	items, degraded := source.ListForCategory("L1")

	assert.False(t, degraded)
	assert.Len(t, items, 6)
	for _, item := range items {
		assert.NotContains(t, item.Path, "notes.txt")
	}
}

func TestListForCategory_FallbackOnMissingTree(t *testing.T) {
	source := newTestSource(t, filepath.Join(t.TempDir(), "missing"), 12)
	items, degraded := source.ListForCategory("L1")

	assert.True(t, degraded)
	require.Len(t, items, 12, "fallback keeps the configured length")
	for _, item := range items {
		assert.Equal(t, FallbackPath, item.Path)
	}
}

func TestListForCategory_ShuffleIsPermutation(t *testing.T) {
	root := t.TempDir()
	writeImageTree(t, root, "L1", 10, 10)

	source := newTestSource(t, root, 20)
	items, _ := source.ListForCategory("L1")

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		assert.False(t, seen[item.Path], "no duplicates from the shuffle")
		seen[item.Path] = true
	}
	assert.Len(t, seen, 20)
}
