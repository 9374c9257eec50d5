// Package config loads worker configuration from a YAML file and environment
// variables, with defaults that work for local development.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log        LogConfig
	Redis      RedisConfig
	S3         S3Config
	OpenRouter OpenRouterConfig
	Tools      ToolsConfig
	Pipeline   PipelineConfig
	Worker     WorkerConfig
	Metrics    MetricsConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	OutputBucket    string
}

type OpenRouterConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	AllowedHosts []string
}

type ToolsConfig struct {
	FFmpegPath   string
	FFprobePath  string
	WhisperBin   string
	WhisperModel string
	VADBin       string
}

type PipelineConfig struct {
	RetakePhrases []string
	// ContextWindowSec is how far before a cluster the decision-service
	// excerpt reaches.
	ContextWindowSec float64
	MinConfidence    float64
	ClusterMaxGapSec float64
	SegmentMergeGap  float64
	SegmentPadding   float64
	MinSilenceMs     int
	NormalizeAudio   bool
}

type WorkerConfig struct {
	PollBase    time.Duration
	PollCap     time.Duration
	MaxRetries  int
	ScratchRoot string
}

type MetricsConfig struct {
	Addr string // empty disables the /metrics listener
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("retakecut")
	viper.AutomaticEnv()

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.access_key_id", "")
	viper.SetDefault("s3.secret_access_key", "")
	viper.SetDefault("s3.force_path_style", false)
	viper.SetDefault("s3.output_bucket", "retakecut-output")

	viper.SetDefault("openrouter.api_key", "")
	viper.SetDefault("openrouter.model", "anthropic/claude-3.5-sonnet")
	viper.SetDefault("openrouter.base_url", "")
	viper.SetDefault("openrouter.allowed_hosts", []string{})

	viper.SetDefault("tools.ffmpeg_path", "ffmpeg")
	viper.SetDefault("tools.ffprobe_path", "ffprobe")
	viper.SetDefault("tools.whisper_bin", "whisper-cli")
	viper.SetDefault("tools.whisper_model", "models/ggml-base.en.bin")
	viper.SetDefault("tools.vad_bin", "silero-vad")

	viper.SetDefault("pipeline.retake_phrases", []string{"cut cut"})
	viper.SetDefault("pipeline.context_window_sec", 30.0)
	viper.SetDefault("pipeline.min_confidence", 0.7)
	viper.SetDefault("pipeline.cluster_max_gap_sec", 20.0)
	viper.SetDefault("pipeline.segment_merge_gap", 0.3)
	viper.SetDefault("pipeline.segment_padding", 0.1)
	viper.SetDefault("pipeline.min_silence_ms", 500)
	viper.SetDefault("pipeline.normalize_audio", true)

	viper.SetDefault("worker.poll_base", "2s")
	viper.SetDefault("worker.poll_cap", "30s")
	viper.SetDefault("worker.max_retries", 3)
	viper.SetDefault("worker.scratch_root", "")

	viper.SetDefault("metrics.addr", "")

	// Config file is optional; env vars and defaults cover everything.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		S3: S3Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
			ForcePathStyle:  viper.GetBool("s3.force_path_style"),
			OutputBucket:    viper.GetString("s3.output_bucket"),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:       viper.GetString("openrouter.api_key"),
			Model:        viper.GetString("openrouter.model"),
			BaseURL:      viper.GetString("openrouter.base_url"),
			AllowedHosts: viper.GetStringSlice("openrouter.allowed_hosts"),
		},
		Tools: ToolsConfig{
			FFmpegPath:   viper.GetString("tools.ffmpeg_path"),
			FFprobePath:  viper.GetString("tools.ffprobe_path"),
			WhisperBin:   viper.GetString("tools.whisper_bin"),
			WhisperModel: viper.GetString("tools.whisper_model"),
			VADBin:       viper.GetString("tools.vad_bin"),
		},
		Pipeline: PipelineConfig{
			RetakePhrases:    viper.GetStringSlice("pipeline.retake_phrases"),
			ContextWindowSec: viper.GetFloat64("pipeline.context_window_sec"),
			MinConfidence:    viper.GetFloat64("pipeline.min_confidence"),
			ClusterMaxGapSec: viper.GetFloat64("pipeline.cluster_max_gap_sec"),
			SegmentMergeGap:  viper.GetFloat64("pipeline.segment_merge_gap"),
			SegmentPadding:   viper.GetFloat64("pipeline.segment_padding"),
			MinSilenceMs:     viper.GetInt("pipeline.min_silence_ms"),
			NormalizeAudio:   viper.GetBool("pipeline.normalize_audio"),
		},
		Worker: WorkerConfig{
			PollBase:    viper.GetDuration("worker.poll_base"),
			PollCap:     viper.GetDuration("worker.poll_cap"),
			MaxRetries:  viper.GetInt("worker.max_retries"),
			ScratchRoot: viper.GetString("worker.scratch_root"),
		},
		Metrics: MetricsConfig{
			Addr: viper.GetString("metrics.addr"),
		},
	}

	return cfg, nil
}
