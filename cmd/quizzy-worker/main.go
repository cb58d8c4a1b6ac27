package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apiserver "github.com/quizzy-ai/quizzy/internal/api_server"
	"github.com/quizzy-ai/quizzy/internal/config"
	"github.com/quizzy-ai/quizzy/internal/jobs"
	"github.com/quizzy-ai/quizzy/internal/pdf"
	"github.com/quizzy-ai/quizzy/internal/rag"
	"github.com/quizzy-ai/quizzy/internal/vector"
	"github.com/quizzy-ai/quizzy/internal/webhook"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

const (
	queueBoth = "both"

	burstPollInterval = 500 * time.Millisecond
)

var (
	burst          bool
	workerName     string
	queueFlag      string
	metricsAddress string
)

var rootCmd = &cobra.Command{
	Use:   "quizzy-worker",
	Short: "Run the quizzy job worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.Flags().BoolVar(&burst, "burst", false, "drain the queues and exit")
	rootCmd.Flags().StringVar(&workerName, "name", "", "worker name, defaults to a generated one")
	rootCmd.Flags().StringVar(&queueFlag, "queue", queueBoth,
		fmt.Sprintf("queue to work: %s, %s or %s", queueBoth, jobs.PDFQueue, jobs.QuizQueue))
	rootCmd.Flags().StringVar(&metricsAddress, "metrics-address", ":8081", "address the metrics endpoint binds to, empty disables it")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	if workerName == "" {
		workerName = fmt.Sprintf("quizzy-worker-%s", uuid.NewString()[:8])
	}

	queues, queueNames, err := selectQueues(cfg)
	if err != nil {
		return err
	}

	zap.S().Named("worker").Infow("Starting worker", "name", workerName, "queues", queueNames, "burst", burst)
	defer zap.S().Named("worker").Info("Worker stopped")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if metricsAddress != "" {
		go func() {
			listener, err := net.Listen("tcp", metricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(metricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()
	}

	pool, err := apiserver.NewPgxPool(ctx, cfg)
	if err != nil {
		zap.S().Fatalw("creating pgx pool", "error", err)
	}
	defer pool.Close()

	indexSrv, err := vector.NewIndexService(cfg)
	if err != nil {
		zap.S().Fatalw("creating vector index service", "error", err)
	}

	generator, err := rag.NewGenerator(cfg, indexSrv)
	if err != nil {
		zap.S().Fatalw("creating generator", "error", err)
	}

	dispatcher := webhook.NewDispatcher(cfg.Service.WebhookBaseUrl)
	jobTimeout := time.Duration(cfg.Service.Queue.JobTimeoutMinutes) * time.Minute

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewPDFWorker(pdf.NewDownloader(), indexSrv, dispatcher, jobTimeout))
	river.AddWorker(workers, jobs.NewQuizWorker(generator, dispatcher, jobTimeout))

	client, err := jobs.NewWorkerClient(cfg, pool, workers, queues, workerName)
	if err != nil {
		zap.S().Fatalw("creating queue client", "error", err)
	}

	if err := client.Start(ctx); err != nil {
		zap.S().Fatalw("starting queue client", "error", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := client.Stop(stopCtx); err != nil {
			zap.S().Named("worker").Warnw("failed to stop queue client", "error", err)
		}
	}()

	if burst {
		return drainAndExit(ctx, client, queueNames)
	}

	<-ctx.Done()
	return nil
}

// drainAndExit polls the worked queues and returns once nothing is left to
// process.
func drainAndExit(ctx context.Context, client *jobs.Client, queueNames []string) error {
	ticker := time.NewTicker(burstPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pending := 0
			for _, queue := range queueNames {
				count, err := client.PendingCount(ctx, queue)
				if err != nil {
					zap.S().Named("worker").Warnw("failed to count pending jobs", "error", err)
					continue
				}
				pending += count
			}
			if pending == 0 {
				zap.S().Named("worker").Info("queues drained, exiting")
				return nil
			}
		}
	}
}

func selectQueues(cfg *config.Config) (map[string]river.QueueConfig, []string, error) {
	maxWorkers := cfg.Service.Queue.MaxWorkers

	switch queueFlag {
	case queueBoth:
		return map[string]river.QueueConfig{
			jobs.PDFQueue:  {MaxWorkers: maxWorkers},
			jobs.QuizQueue: {MaxWorkers: maxWorkers},
		}, []string{jobs.PDFQueue, jobs.QuizQueue}, nil
	case jobs.PDFQueue, jobs.QuizQueue:
		return map[string]river.QueueConfig{
			queueFlag: {MaxWorkers: maxWorkers},
		}, []string{queueFlag}, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue %q", queueFlag)
	}
}
