package di

import (
	"context"
	"fmt"
	"time"

	"FolioPull/internal/domain/repository"
	domsvc "FolioPull/internal/domain/service"
	"FolioPull/internal/handler/api"
	internalrepo "FolioPull/internal/repository"
	"FolioPull/internal/service/kraken"
	svcmetrics "FolioPull/internal/service/metrics"
	"FolioPull/internal/services/matcher"
	"FolioPull/internal/services/ohlc"
	"FolioPull/internal/services/pricing"
	"FolioPull/internal/services/resolver"
	"FolioPull/internal/services/valuation"
	"FolioPull/internal/usecase"
	"FolioPull/pkg/cache"
	pkgch "FolioPull/pkg/clickhouse"
	"FolioPull/pkg/config"
	xhttp "FolioPull/pkg/http"
	pkgkafka "FolioPull/pkg/kafka"
	xlogger "FolioPull/pkg/logger"
	"FolioPull/pkg/metrics"
	"FolioPull/pkg/server"
)

// ProvideLogger creates the root structured logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(xlogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCacheStore creates the snapshot cache backend.
func ProvideCacheStore(cfg *config.Config) (cache.Service, func(), error) {
	var store cache.Service
	switch cfg.Cache.Backend {
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		store = rc
		if cfg.Cache.Backend == "layered" {
			store = cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MaxSize))
		}
	default:
		store = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize))
	}
	return store, func() { _ = store.Close() }, nil
}

// ProvideKrakenClient creates the exchange client from explicit config.
func ProvideKrakenClient(cfg *config.Config, logger *xlogger.Logger) (*kraken.Client, error) {
	kc := kraken.Config{
		BaseURL:      cfg.Kraken.BaseURL,
		APIKey:       cfg.Kraken.APIKey,
		APISecret:    cfg.Kraken.APISecret,
		Timeout:      cfg.Kraken.Timeout,
		PublicLimit:  kraken.RateLimit(cfg.Kraken.RateLimit.Public),
		PrivateLimit: kraken.RateLimit(cfg.Kraken.RateLimit.Private),
	}
	client, err := kraken.New(kc, kraken.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("kraken client: %w", err)
	}
	if !kc.HasCredentials() {
		logger.Warn("kraken credentials missing, account endpoints will fail")
	}
	return client, nil
}

// ProvideExchange instruments the exchange client with call metrics.
func ProvideExchange(client *kraken.Client, m repository.Metrics) repository.Exchange {
	return svcmetrics.Instrument(client, m)
}

// ProvideAssetMatcher builds the configured alias table over the ratio matcher.
func ProvideAssetMatcher(cfg *config.Config) domsvc.AssetMatcher {
	ratio := matcher.NewRatio(cfg.Portfolio.MatchCutoff)
	if len(cfg.Portfolio.Aliases) == 0 {
		return ratio
	}
	return matcher.NewAlias(cfg.Portfolio.Aliases, ratio)
}

// ProvideServices builds the pricing, candle, resolution and valuation engines.
func ProvideServices(
	cfg *config.Config,
	exchange repository.Exchange,
	m domsvc.AssetMatcher,
	logger *xlogger.Logger,
	rec repository.Metrics,
) usecase.Services {
	quote := cfg.Portfolio.QuoteCurrency
	return usecase.Services{
		Resolver: resolver.New(m,
			resolver.WithQuote(quote),
			resolver.WithLogger(logger),
		),
		Prices: pricing.New(exchange,
			pricing.WithQuote(quote),
			pricing.WithFiatCurrencies(cfg.Portfolio.FiatCurrencies),
			pricing.WithConcurrency(cfg.Kraken.Concurrency),
			pricing.WithLogger(logger),
			pricing.WithMetrics(rec),
		),
		Candles: ohlc.New(exchange,
			ohlc.WithQuote(quote),
			ohlc.WithExclusions(cfg.Portfolio.CandleExclusions),
			ohlc.WithAliasMatcher(matcher.NewRatio(cfg.Portfolio.MatchCutoff)),
			ohlc.WithLogger(logger),
			ohlc.WithMetrics(rec),
		),
		Valuator: valuation.New(cfg.Portfolio.DisplayCurrency),
		Names:    matcher.NewRatio(cfg.Portfolio.MatchCutoff),
	}
}

// ProvideSnapshotSink creates the configured valuation sink. With the Kafka
// sink the producer also carries aggregated warn/error logs.
func ProvideSnapshotSink(cfg *config.Config, logger *xlogger.Logger) (repository.SnapshotSink, func(), error) {
	switch cfg.Sink.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Compression, cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		if cfg.Log.CollectorTopic != "" {
			logger.AddCollector(&xlogger.CollectionConfig{
				TimeInterval: cfg.Log.CollectorInterval,
				Topic:        cfg.Log.CollectorTopic,
				Publisher:    internalrepo.NewLogPublisher(producer),
			})
		}
		// the sink owns the producer and closes it with the session
		return internalrepo.NewKafkaSnapshotSink(producer, cfg.Kafka.Topic), func() {}, nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}

		sink := internalrepo.NewClickHouseSnapshotSink(client.DB(), cfg.ClickHouse.Database+".valuation_snapshots")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}, sink.Schema()...)
		if err := client.InitSchema(ctx, stmts); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return sink, func() { _ = client.Close() }, nil

	default:
		return internalrepo.NoopSnapshotSink{}, func() {}, nil
	}
}

// ProvideSnapshotRecorder creates the recorder the session writes through.
func ProvideSnapshotRecorder(
	sink repository.SnapshotSink,
	rec repository.Metrics,
	logger *xlogger.Logger,
	cfg *config.Config,
) *usecase.SnapshotRecorder {
	return usecase.NewSnapshotRecorder(sink, rec, logger, cfg.Sink.Timeout)
}

// ProvideSession opens the portfolio session served by the process.
func ProvideSession(
	cfg *config.Config,
	store cache.Service,
	exchange repository.Exchange,
	svc usecase.Services,
	recorder *usecase.SnapshotRecorder,
	rec repository.Metrics,
	logger *xlogger.Logger,
) (*usecase.Session, error) {
	return usecase.NewSession(
		usecase.PortfolioConfig{
			DisplayCurrency:   cfg.Portfolio.DisplayCurrency,
			QuoteCurrency:     cfg.Portfolio.QuoteCurrency,
			FXPair:            cfg.Portfolio.FXPair,
			FXInvert:          cfg.Portfolio.FXInvert,
			TradeBalanceAsset: cfg.Portfolio.TradeBalanceAsset,
		},
		store,
		exchange,
		svc,
		usecase.WithRecorder(recorder),
		usecase.WithSessionMetrics(rec),
		usecase.WithSessionLogger(logger),
	)
}

// ProvidePortfolioHandler creates the Echo handler over the session.
func ProvidePortfolioHandler(logger *xlogger.Logger, session *usecase.Session) *api.PortfolioEchoHandler {
	return api.NewPortfolioEchoHandler(logger, session)
}

// ProvideHTTPServer creates the HTTP server.
func ProvideHTTPServer(cfg *config.Config, handler *api.PortfolioEchoHandler, logger *xlogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, nil, nil, cfg.Server.SlowRequest))
	}
	return xhttp.NewServer(handler, logger, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *xlogger.Logger,
	httpServer *xhttp.Server,
	session *usecase.Session,
) *server.App {
	return server.New(cfg, logger, httpServer, session)
}
