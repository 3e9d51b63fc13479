package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "FolioPull/internal/repository"
	"FolioPull/internal/services/matcher"
	"FolioPull/pkg/cache"
	"FolioPull/pkg/config"
)

func TestInitializeApp_Defaults(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Output = "stderr"
	cfg.Log.Level = "error"

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	cleanup()
}

func TestProvideCacheStore_Memory(t *testing.T) {
	cfg := config.Default()
	store, cleanup, err := ProvideCacheStore(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &cache.MemoryCache{}, store)
}

func TestProvideAssetMatcher(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &matcher.Ratio{}, ProvideAssetMatcher(cfg))

	cfg.Portfolio.Aliases = map[string]string{"DOGEUSD": "XDGUSD"}
	m := ProvideAssetMatcher(cfg)
	require.IsType(t, &matcher.Alias{}, m)
	got, _, ok := m.Match("DOGEUSD", []string{"XBTUSD", "XDGUSD"})
	assert.True(t, ok)
	assert.Equal(t, "XDGUSD", got)
}

func TestProvideSnapshotSink_None(t *testing.T) {
	cfg := config.Default()
	sink, cleanup, err := ProvideSnapshotSink(cfg, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, internalrepo.NoopSnapshotSink{}, sink)
	assert.NoError(t, sink.Record(context.Background(), nil))
}
