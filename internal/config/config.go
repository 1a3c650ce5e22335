package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LangGraphURL      string        `env:"LANGGRAPH_URL" envDefault:"http://localhost:2024"`
	LangGraphAPIKey   string        `env:"LANGGRAPH_API_KEY"`
	DefaultAssistant  string        `env:"DEFAULT_ASSISTANT" envDefault:"pr_reviewer"`
	StreamIdleTimeout time.Duration `env:"STREAM_IDLE_TIMEOUT" envDefault:"2m"`
	MaxPendingLines   int           `env:"MAX_PENDING_LINES" envDefault:"8"`
	DatabaseURL       string        `env:"DATABASE_URL"` // empty disables run persistence
	NATSEnabled       bool          `env:"NATS_ENABLED" envDefault:"true"`
	NATSStoreDir      string        `env:"NATS_STORE_DIR" envDefault:"/tmp/graphstream-nats"`
	WriterBufferSize  int           `env:"WRITER_BUFFER_SIZE" envDefault:"1000"`
	WriterBatchSize   int           `env:"WRITER_BATCH_SIZE" envDefault:"50"`
	WriterFlushMs     int           `env:"WRITER_FLUSH_MS" envDefault:"100"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
