package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/symbiotic-sonnet/internal/adapters/http"
	"github.com/PabloGalante/symbiotic-sonnet/internal/adapters/llm"
	dynamostore "github.com/PabloGalante/symbiotic-sonnet/internal/adapters/storage/dynamodb"
	firestorestore "github.com/PabloGalante/symbiotic-sonnet/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/symbiotic-sonnet/internal/adapters/storage/memory"
	"github.com/PabloGalante/symbiotic-sonnet/internal/app/archive"
	"github.com/PabloGalante/symbiotic-sonnet/internal/app/generation"
	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("sonnet-api exited", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	observability.Init(cfg.LogLevel)
	defer observability.Sync()
	log := observability.WithFields(zap.String("component", "server"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("text generator ready",
		zap.String("provider", gen.Name()),
		zap.String("model", cfg.LLM.Model),
		zap.String("visuals", string(cfg.Visuals)),
	)

	store, closeStore, err := newArchiveStore(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer closeStore()

	genSvc := generation.NewService(gen, cfg.Visuals, generation.WithRequireAPIKey(cfg.RequireAPIKey))
	archiveSvc := archive.NewService(store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(genSvc, archiveSvc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("sonnet API listening", zap.String("addr", srv.Addr), zap.String("mode", string(cfg.Mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newArchiveStore picks the poem archive backend. A nil archive with a
// no-op closer means archiving is off.
func newArchiveStore(ctx context.Context, cfg config.ArchiveConfig) (domain.PoemArchive, func(), error) {
	log := observability.WithFields(zap.String("component", "archive"), zap.String("backend", cfg.Backend))
	noop := func() {}

	switch cfg.Backend {
	case config.ArchiveFirestore:
		log.Info("using Firestore archive", zap.String("project", cfg.GCPProject))
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProject)
		if err != nil {
			return nil, noop, err
		}
		return fs, func() { _ = fs.Close() }, nil

	case config.ArchiveDynamoDB:
		log.Info("using DynamoDB archive", zap.String("table", cfg.DynamoDBTable))
		ds, err := dynamostore.NewStore(ctx, cfg.DynamoDBTable)
		if err != nil {
			return nil, noop, err
		}
		return ds, noop, nil

	case config.ArchiveNone:
		log.Info("poem archive disabled")
		return nil, noop, nil

	default:
		log.Info("using in-memory archive")
		return memstore.NewPoemStore(), noop, nil
	}
}
