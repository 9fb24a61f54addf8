package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/linkshelf/internal/app/server"
	grpcserver "github.com/atinyakov/linkshelf/internal/app/server/grpc"
	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/cache"
	"github.com/atinyakov/linkshelf/internal/config"
	"github.com/atinyakov/linkshelf/internal/logger"
	"github.com/atinyakov/linkshelf/internal/metrics"
	"github.com/atinyakov/linkshelf/internal/repository"
	"github.com/atinyakov/linkshelf/internal/storage"
	"github.com/atinyakov/linkshelf/internal/trace"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func main() {
	fmt.Printf("Build version: %s\n", orNA(buildVersion))
	fmt.Printf("Build date: %s\n", orNA(buildDate))
	fmt.Printf("Build commit: %s\n", orNA(buildCommit))

	options, err := config.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel, options.LogFormat); err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		fail(log, err)
	}
}

// fail logs err and flushes the logger before panicking, so buffered entries
// reach the sink and deferred cleanup in main still runs.
func fail(log *logger.Logger, err error) {
	log.Log.Error("shutdown with error", zap.Error(err))
	log.Sync()
	panic(err)
}

// run wires every component from options and blocks until ctx is done and
// the servers have drained.
func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	metrics.Init()

	if options.TracingEnabled {
		shutdown, err := trace.InitTrace(ctx, options.OTLPEndpoint, options.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				zapLogger.Warn("trace shutdown", zap.Error(err))
			}
		}()
	}

	store, closeStore, err := newStore(ctx, options, zapLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	store, closeCache, err := withCache(ctx, store, options, zapLogger)
	if err != nil {
		return err
	}
	defer closeCache()

	generator, err := service.NewGenerator(options.IDStrategy, options.IDLength)
	if err != nil {
		return err
	}

	urlService := service.NewURL(store, generator, zapLogger, options.ResultHostname,
		service.WithMaxAttempts(options.IDMaxAttempts),
		service.WithRedirectPrefix(options.RedirectPrefix),
	)
	auth := service.NewAuth(options.JWTSecret)

	var handler http.Handler = server.Init(urlService, auth, server.Options{
		RedirectPrefix: options.RedirectPrefix,
		TrustedSubnet:  options.TrustedSubnet,
	}, zapLogger)
	if options.TracingEnabled {
		handler = otelhttp.NewHandler(handler, options.ServiceName)
	}

	httpServer := &http.Server{
		Addr:              options.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	grpcServer := grpcserver.New(urlService, auth, zapLogger, options.GRPCPort)

	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if options.EnableHTTPS {
			manager := &autocert.Manager{
				// директория для хранения сертификатов
				Cache:      autocert.DirCache("cache-dir"),
				Prompt:     autocert.AcceptTOS,
				HostPolicy: autocert.HostWhitelist(options.TLSHosts...),
			}
			httpServer.Addr = ":443"
			httpServer.TLSConfig = manager.TLSConfig()
			zapLogger.Info("Server is running with TLS", zap.Strings("hosts", options.TLSHosts))
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			zapLogger.Info("Server is running", zap.String("hostname", options.Port))
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(grpcServer.Start)

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), options.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return httpServer.Shutdown(sctx)
	})

	return g.Wait()
}

// newStore picks the backend: database, then file, then memory.
func newStore(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (service.Store, func(), error) {
	switch {
	case options.DatabaseDSN != "":
		zapLogger.Info("using db")
		db, err := repository.InitDB(ctx, options.DatabaseDSN, zapLogger)
		if err != nil {
			return nil, nil, err
		}
		return repository.CreateURLRepository(db, zapLogger), closer(db, zapLogger), nil

	case options.FilePath != "":
		zapLogger.Info("using file", zap.String("filePath", options.FilePath))
		fs, err := storage.NewFileStorage(options.FilePath, zapLogger)
		if err != nil {
			return nil, nil, err
		}
		return fs, closer(fs, zapLogger), nil

	default:
		zapLogger.Info("using in memory storage")
		ms, err := storage.CreateMemoryStorage()
		if err != nil {
			return nil, nil, err
		}
		return ms, func() {}, nil
	}
}

// withCache wraps store in the resolution cache when enabled. Redis is only
// used when an address is configured.
func withCache(ctx context.Context, store service.Store, options *config.Options, zapLogger *zap.Logger) (service.Store, func(), error) {
	if !options.CacheEnabled {
		return store, func() {}, nil
	}

	local, err := cache.NewLocalCache(options.CacheMaxItems, options.CacheTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("local cache: %w", err)
	}

	var remote *cache.RemoteCache
	closeRedis := func() {}
	if options.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, options.RedisAddr, options.RedisPassword, options.RedisDB)
		if err != nil {
			local.Close()
			return nil, nil, err
		}
		remote = cache.NewRemoteCache(client, options.CacheTTL)
		closeRedis = closer(client, zapLogger)
	}

	cached := cache.New(store, local, remote, zapLogger)
	zapLogger.Info("resolution cache enabled", zap.Bool("redis", remote != nil))

	return cached, func() {
		cached.Close()
		closeRedis()
	}, nil
}

func closer(c io.Closer, zapLogger *zap.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			zapLogger.Warn("close failed", zap.Error(err))
		}
	}
}
