package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/civicgrid/complaint-intake/internal/adapters/http"
	"github.com/civicgrid/complaint-intake/internal/config"
	"github.com/civicgrid/complaint-intake/internal/core/ports"
	"github.com/civicgrid/complaint-intake/internal/core/usecase"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/audio"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/backup/jsonfile"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/llm/ollama"
	natsqueue "github.com/civicgrid/complaint-intake/internal/infrastructure/queue/nats"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/repository/sqlite"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/resilience"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/storage/localfs"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/transcription/vosk"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/transcription/whisper"
	"github.com/civicgrid/complaint-intake/internal/observability/metrics"
)

const serviceName = "intake-api"

// Container holds the wired application graph.
type Container struct {
	Handler http.Handler

	db        *sql.DB
	publisher *natsqueue.Publisher
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Container, error) {
	db, err := sqlite.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := sqlite.NewComplaintRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	backupSink := jsonfile.New(cfg.BackupPath)

	scratch, err := localfs.New(cfg.ScratchPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("scratch store: %w", err)
	}

	structureTimeout := time.Duration(cfg.StructureTimeoutSeconds) * time.Second
	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaModel, structureTimeout)
	structurer := ollama.NewStructurer(ollamaClient, resilience.NewExecutor(resilience.StructuringConfig()))

	transcriber, err := buildTranscriber(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	var publisher *natsqueue.Publisher
	var events ports.EventPublisher
	if cfg.NATSEnabled {
		publisher, err = natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.PublishConfig()),
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("nats publisher: %w", err)
		}
		events = publisher
		logger.Info("nats_publisher_enabled", "subject", cfg.NATSSubject)
	}

	intakeMetrics := metrics.NewIntakeMetrics(serviceName)

	intake := usecase.NewIntakeUseCase(repo, structurer, transcriber, scratch, backupSink, usecase.IntakeOptions{
		Events:                      events,
		Observer:                    metrics.NewPipelineObserver(intakeMetrics, serviceName),
		RejectTranscriptionSentinel: cfg.RejectTranscriptionSentinel,
	})
	admin := usecase.NewAdminUseCase(repo, backupSink)

	router := httpadapter.NewRouter(intake, admin, httpadapter.RouterOptions{
		Metrics:      intakeMetrics,
		FrontendDist: cfg.FrontendDist,
	})

	logger.Info("container_built",
		"db_path", cfg.DBPath,
		"transcriber", cfg.TranscriberBackend,
		"ollama_model", cfg.OllamaModel,
	)

	return &Container{
		Handler:   router.Handler(),
		db:        db,
		publisher: publisher,
	}, nil
}

func buildTranscriber(cfg config.Config) (ports.Transcriber, error) {
	switch cfg.TranscriberBackend {
	case "vosk":
		converter := audio.NewConverter(cfg.FFmpegBin)
		return vosk.New(cfg.VoskModelPath, cfg.VoskLanguageLabel, converter), nil
	case "whisper":
		return whisper.New(cfg.WhisperURL, time.Duration(cfg.StructureTimeoutSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q", cfg.TranscriberBackend)
	}
}

func (c *Container) Close() {
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}
