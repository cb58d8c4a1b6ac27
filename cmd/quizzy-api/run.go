package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apiserver "github.com/quizzy-ai/quizzy/internal/api_server"
	"github.com/quizzy-ai/quizzy/internal/config"
	"github.com/quizzy-ai/quizzy/internal/events"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

var (
	metricsAddress string
)

func init() {
	runCmd.Flags().StringVar(&metricsAddress, "metrics-address", ":8080", "address the metrics endpoint binds to")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the quizzy api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		eventWriter := newEventProducer(cfg)
		defer func() { _ = eventWriter.Close() }()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, s, listener, eventWriter)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(metricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(metricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newEventProducer(cfg *config.Config) *events.EventProducer {
	if len(cfg.Service.Kafka.Brokers) == 0 {
		return events.NewEventProducer(&events.StdoutWriter{})
	}

	writer, err := events.NewKafkaWriter(cfg)
	if err != nil {
		zap.S().Errorw("failed to create kafka writer, falling back to stdout", "error", err)
		return events.NewEventProducer(&events.StdoutWriter{})
	}

	opts := []events.ProducerOption{}
	if cfg.Service.Kafka.Topic != "" {
		opts = append(opts, events.WithOutputTopic(cfg.Service.Kafka.Topic))
	}
	return events.NewEventProducer(writer, opts...)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
