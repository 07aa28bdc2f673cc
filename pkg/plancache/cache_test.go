package plancache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/internal/testutil"
	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialects/ansi"
	"github.com/leapstack-labs/leapql/pkg/plancache"
)

func newCache(t *testing.T, size int) *plancache.Cache {
	t.Helper()
	c, err := compiler.New(testutil.NewDomainModel(t), ansi.ANSI, testutil.NewTestLogger(t))
	require.NoError(t, err)
	cache, err := plancache.New(c, size)
	require.NoError(t, err)
	return cache
}

func TestCache_HitAndMiss(t *testing.T) {
	cache := newCache(t, 0)

	first, err := cache.Compile("select a.basic from Something a")
	require.NoError(t, err)
	second, err := cache.Compile("select a.basic from Something a")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = cache.Compile("select a.basic2 from Something a")
	require.NoError(t, err)

	assert.Equal(t, plancache.Stats{Hits: 1, Misses: 2, Size: 2}, cache.Stats())

	cache.Purge()
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestCache_Eviction(t *testing.T) {
	cache := newCache(t, 1)

	first, err := cache.Compile("select a.basic from Something a")
	require.NoError(t, err)
	_, err = cache.Compile("select a.basic2 from Something a")
	require.NoError(t, err)
	again, err := cache.Compile("select a.basic from Something a")
	require.NoError(t, err)

	assert.NotSame(t, first, again)
	assert.Equal(t, first.SQL, again.SQL)
	assert.Equal(t, int64(3), cache.Stats().Misses)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	cache := newCache(t, 4)

	for range 2 {
		_, err := cache.Compile("select a from Nothing a")
		require.ErrorIs(t, err, core.ErrSemantic)
	}
	assert.Equal(t, plancache.Stats{Misses: 2}, cache.Stats())
}

func TestCache_Concurrent(t *testing.T) {
	cache := newCache(t, 4)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := cache.Compile("select e.name from Something s join s.entity e")
			assert.NoError(t, err)
			assert.NotNil(t, res)
		}()
	}
	wg.Wait()

	stats := cache.Stats()
	assert.Equal(t, int64(8), stats.Hits+stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestNew_RequiresCompiler(t *testing.T) {
	_, err := plancache.New(nil, 1)
	require.Error(t, err)
}
