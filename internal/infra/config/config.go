package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ButteraugliPath string `env:"BUTTERAUGLI_PATH" envDefault:""`
	SsimulacraPath  string `env:"SSIMULACRA_PATH"  envDefault:""`
	Ssimulacra2Path string `env:"SSIMULACRA2_PATH" envDefault:""`

	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	ScratchDir    string `env:"SCRATCH_DIR"     envDefault:""`
	Workers       int    `env:"WORKER_COUNT"    envDefault:"0"`
	ToolTimeoutMs int    `env:"TOOL_TIMEOUT_MS" envDefault:"300000"`

	MetricsPort  int    `env:"METRICS_PORT"           envDefault:"0"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_ENDPOINT" envDefault:""`
	LogLevel     string `env:"LOG_LEVEL"              envDefault:"warn"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "butter-video")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
