package importcache_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/importcache"
)

func TestGetMissesOnEmptyCache(t *testing.T) {
	c := importcache.New()
	_, ok := c.Get("/proj/main.go", time.Now())
	assert.False(t, ok)
}

func TestPutThenGetHitsOnMatchingMtime(t *testing.T) {
	c := importcache.New()
	mtime := time.Now()
	want := []editplan.ImportInfo{{Specifier: "os", Category: editplan.CategoryBareModule}}

	c.Put("/proj/main.go", mtime, want)

	got, ok := c.Get("/proj/main.go", mtime)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetMissesOnStaleMtime(t *testing.T) {
	c := importcache.New()
	original := time.Now()
	c.Put("/proj/main.go", original, []editplan.ImportInfo{{Specifier: "os"}})

	_, ok := c.Get("/proj/main.go", original.Add(time.Second))
	assert.False(t, ok)
}

func TestInvalidateForcesNextGetToMiss(t *testing.T) {
	c := importcache.New()
	mtime := time.Now()
	c.Put("/proj/main.go", mtime, []editplan.ImportInfo{{Specifier: "os"}})

	c.Invalidate("/proj/main.go")

	_, ok := c.Get("/proj/main.go", mtime)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestDisabledViaGlobalFlagNeverHits(t *testing.T) {
	t.Setenv(importcache.EnvDisableAllCaches, "1")
	c := importcache.New()
	require.True(t, c.Disabled())

	mtime := time.Now()
	c.Put("/proj/main.go", mtime, []editplan.ImportInfo{{Specifier: "os"}})

	_, ok := c.Get("/proj/main.go", mtime)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestDisabledViaImportSpecificFlagNeverHits(t *testing.T) {
	t.Setenv(importcache.EnvDisableImportCache, "yes")
	c := importcache.New()
	require.True(t, c.Disabled())

	mtime := time.Now()
	c.Put("/proj/main.go", mtime, []editplan.ImportInfo{{Specifier: "os"}})

	_, ok := c.Get("/proj/main.go", mtime)
	assert.False(t, ok)
}

func TestAbsenceOfBothFlagsEnablesCache(t *testing.T) {
	os.Unsetenv(importcache.EnvDisableAllCaches)
	os.Unsetenv(importcache.EnvDisableImportCache)
	c := importcache.New()
	assert.False(t, c.Disabled())
}
