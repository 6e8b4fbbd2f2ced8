package config

import (
	"strings"

	"github.com/spf13/viper"

	"polyglot/backend/internal/model"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`

	OllamaURL  string `mapstructure:"OLLAMA_URL"`
	ModelName  string `mapstructure:"MODEL_NAME"`
	ModelAsset string `mapstructure:"MODEL_ASSET"` // Optional GGUF file shipped under AssetsDir.
	MaxTokens  int    `mapstructure:"MAX_TOKENS"`

	AssetsDir string `mapstructure:"ASSETS_DIR"`
	CacheDir  string `mapstructure:"CACHE_DIR"`
	DataDir   string `mapstructure:"DATA_DIR"`

	WhisperBin   string `mapstructure:"WHISPER_BIN"`
	WhisperModel string `mapstructure:"WHISPER_MODEL"`

	RecordCommand string `mapstructure:"RECORD_COMMAND"`
	TTSBin        string `mapstructure:"TTS_BIN"`

	Workers      int     `mapstructure:"WORKERS"`
	RateLimitRPS float64 `mapstructure:"RATE_LIMIT_RPS"`

	DefaultTopK        int     `mapstructure:"DEFAULT_TOP_K"`
	DefaultTopP        float64 `mapstructure:"DEFAULT_TOP_P"`
	DefaultTemperature float64 `mapstructure:"DEFAULT_TEMPERATURE"`
	DefaultVision      bool    `mapstructure:"DEFAULT_VISION"`
}

func LoadConfig() (*Config, error) {
	defaults := model.DefaultSettings()

	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("DATABASE_PATH", "/data/polyglot.db")
	viper.SetDefault("OLLAMA_URL", "http://localhost:11434")
	viper.SetDefault("MODEL_NAME", "gemma3n:e2b")
	viper.SetDefault("MODEL_ASSET", "")
	viper.SetDefault("MAX_TOKENS", 1000)
	viper.SetDefault("ASSETS_DIR", "./assets")
	viper.SetDefault("CACHE_DIR", "/data/cache")
	viper.SetDefault("DATA_DIR", "/data")
	viper.SetDefault("WHISPER_BIN", "whisper-cli")
	viper.SetDefault("WHISPER_MODEL", "ggml-base.en.bin")
	viper.SetDefault("RECORD_COMMAND", "arecord -q -t raw -f S16_LE -c 1 -r 16000")
	viper.SetDefault("TTS_BIN", "espeak-ng")
	viper.SetDefault("WORKERS", 4)
	viper.SetDefault("RATE_LIMIT_RPS", 2.0)
	viper.SetDefault("DEFAULT_TOP_K", defaults.TopK)
	viper.SetDefault("DEFAULT_TOP_P", defaults.TopP)
	viper.SetDefault("DEFAULT_TEMPERATURE", defaults.Temperature)
	viper.SetDefault("DEFAULT_VISION", defaults.VisionEnabled)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultSettings returns the sampling configuration the session starts with.
func (c *Config) DefaultSettings() model.Settings {
	return model.Settings{
		TopK:          c.DefaultTopK,
		TopP:          c.DefaultTopP,
		Temperature:   c.DefaultTemperature,
		VisionEnabled: c.DefaultVision,
	}
}
