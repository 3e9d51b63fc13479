//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FolioPull/internal/domain/repository"
	"FolioPull/pkg/config"
	"FolioPull/pkg/metrics"
	"FolioPull/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Infrastructure
		ProvideCacheStore,
		ProvideKrakenClient,
		ProvideExchange,
		ProvideSnapshotSink,

		// Domain services
		ProvideAssetMatcher,
		ProvideServices,

		// Use cases
		ProvideSnapshotRecorder,
		ProvideSession,

		// Transport
		ProvidePortfolioHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
