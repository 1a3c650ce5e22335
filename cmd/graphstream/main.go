package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/namikmesic/graphstream/internal/agent"
	"github.com/namikmesic/graphstream/internal/assistant"
	"github.com/namikmesic/graphstream/internal/client"
	"github.com/namikmesic/graphstream/internal/config"
	"github.com/namikmesic/graphstream/internal/jetstream"
	"github.com/namikmesic/graphstream/internal/processor"
	"github.com/namikmesic/graphstream/internal/storage"
	"github.com/namikmesic/graphstream/internal/tracker"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	client  *client.Client
	service *agent.Service

	pool       *pgxpool.Pool
	writer     *storage.BatchWriter
	natsServer *jetstream.Server
	nc         *nats.Conn
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.shutdown()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "graphstream",
		Short:         "Talk to a LangGraph agent service and stream its replies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.start(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	root.AddCommand(newAskCmd(a), newThreadsCmd(a))
	return root
}

func (a *app) start(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"})

	var writer storage.Enqueuer = storage.Discard
	var threadStore assistant.Store
	if cfg.DatabaseURL != "" {
		a.pool, err = storage.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := storage.RunMigrations(ctx, a.pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.writer = storage.NewBatchWriter(a.pool, cfg.WriterBufferSize, cfg.WriterBatchSize, cfg.WriterFlushMs)
		writer = a.writer
		threadStore = storage.NewThreadStore(a.pool)
	}

	observers := []tracker.StepObserver{newStepPrinter(stderr)}
	var sinks []processor.ContentSink
	var listeners []agent.RunListener
	if cfg.NATSEnabled {
		pub, err := a.startJetStream()
		if err != nil {
			return err
		}
		observers = append(observers, pub)
		sinks = append(sinks, pub)
		listeners = append(listeners, pub)
	}

	a.client = client.New(cfg.LangGraphURL, cfg.LangGraphAPIKey)
	trk := tracker.New(observers...)
	a.service = agent.New(agent.Deps{
		Transport: a.client,
		Resolver:  assistant.NewResolver(a.client, assistant.NewCache()),
		Threads:   assistant.NewAssociations(threadStore),
		Processor: processor.New(trk, cfg.MaxPendingLines, cfg.StreamIdleTimeout, sinks...),
		Tracker:   trk,
		Recorder:  processor.NewRecorder(writer, cfg.MaxPendingLines),
		Writer:    writer,
		Listeners: listeners,
	})
	return nil
}

func (a *app) startJetStream() (*jetstream.Publisher, error) {
	var err error
	a.natsServer, err = jetstream.NewServer(a.cfg.NATSStoreDir)
	if err != nil {
		return nil, fmt.Errorf("start embedded NATS: %w", err)
	}

	a.nc, err = a.natsServer.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to embedded NATS: %w", err)
	}

	js, err := a.nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("get JetStream context: %w", err)
	}
	if err := jetstream.EnsureStream(js); err != nil {
		return nil, fmt.Errorf("create JetStream stream: %w", err)
	}
	return jetstream.NewPublisher(js), nil
}

func (a *app) shutdown() {
	if a.nc != nil {
		a.nc.Drain()
	}
	if a.natsServer != nil {
		a.natsServer.Shutdown()
	}
	if a.writer != nil {
		a.writer.Shutdown()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	log.Debug().Msg("shutdown complete")
}
