package jetstream

import (
	"fmt"
	"time"

	server "github.com/nats-io/nats-server/v2/server"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const readyTimeout = 5 * time.Second

// Server is an in-process NATS server holding the run progress stream. It
// accepts no network connections.
type Server struct{ ns *server.Server }

func NewServer(storeDir string) (*Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "graphstream",
		DontListen: true,
		JetStream:  true,
		StoreDir:   storeDir,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS: %w", err)
	}
	ns.SetLogger(natsLogger{}, zerolog.GlobalLevel() <= zerolog.DebugLevel, false)

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS not ready after %s", readyTimeout)
	}
	log.Debug().Str("store_dir", storeDir).Msg("embedded NATS ready")
	return &Server{ns: ns}, nil
}

func (s *Server) Connect() (*nats.Conn, error) {
	return nats.Connect(s.ns.ClientURL(),
		nats.InProcessServer(s.ns),
		nats.Name("graphstream-publisher"),
	)
}

func (s *Server) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}

// natsLogger routes server diagnostics into the process log.
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...any) { log.Debug().Str("component", "nats").Msgf(format, v...) }
func (natsLogger) Warnf(format string, v ...any)   { log.Warn().Str("component", "nats").Msgf(format, v...) }
func (natsLogger) Errorf(format string, v ...any)  { log.Error().Str("component", "nats").Msgf(format, v...) }
func (natsLogger) Fatalf(format string, v ...any)  { log.Error().Str("component", "nats").Msgf(format, v...) }
func (natsLogger) Debugf(format string, v ...any)  { log.Debug().Str("component", "nats").Msgf(format, v...) }
func (natsLogger) Tracef(format string, v ...any)  { log.Trace().Str("component", "nats").Msgf(format, v...) }
