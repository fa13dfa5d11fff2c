// Package config loads tleval settings from flags, environment, .env files and YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TLEVAL_EVAL_DEVICE.
const EnvPrefix = "TLEVAL"

type Config struct {
	Output  OutputConfig  `mapstructure:"output"`
	ONNX    ONNXConfig    `mapstructure:"onnx"`
	Logging LoggingConfig `mapstructure:"logging"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Server  ServerConfig  `mapstructure:"server"`
}

// OutputConfig holds the directories artifacts are written to.
type OutputConfig struct {
	F1Dir        string `mapstructure:"f1_dir"`
	ConfusionDir string `mapstructure:"confusion_dir"`
	ReportDir    string `mapstructure:"report_dir"`
}

type EvalConfig struct {
	Device      string `mapstructure:"device"`
	Workers     int    `mapstructure:"workers"`
	Seed        uint64 `mapstructure:"seed"`
	Resize      int    `mapstructure:"resize"`
	TopK        int    `mapstructure:"top_k"`
	Shuffle     bool   `mapstructure:"shuffle"`
	WriteReport bool   `mapstructure:"write_report"`
}

type ONNXConfig struct {
	LibraryPath string `mapstructure:"library_path"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output.f1_dir", "../visualisations/f1_scores")
	v.SetDefault("output.confusion_dir", "../visualisations/confusion_matrices")
	v.SetDefault("output.report_dir", "./classification_reports")

	v.SetDefault("eval.device", "cpu")
	v.SetDefault("eval.workers", 4)
	v.SetDefault("eval.shuffle", true)
	v.SetDefault("eval.seed", 0)
	v.SetDefault("eval.resize", 0)
	v.SetDefault("eval.top_k", 5)
	v.SetDefault("eval.write_report", true)

	v.SetDefault("onnx.library_path", "")
	v.SetDefault("server.port", "8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Init points v at the config file (or the standard search path), enables
// environment overrides and reads the file if there is one. A missing config
// file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tleval"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("tleval")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, common.Wrap(common.ErrInvalidConfig, "decode config", err)
	}

	cfg.Output.F1Dir = ExpandPath(cfg.Output.F1Dir)
	cfg.Output.ConfusionDir = ExpandPath(cfg.Output.ConfusionDir)
	cfg.Output.ReportDir = ExpandPath(cfg.Output.ReportDir)
	cfg.ONNX.LibraryPath = ExpandPath(cfg.ONNX.LibraryPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Eval.Device {
	case "cpu", "cuda":
	default:
		return common.Errorf(common.ErrInvalidConfig, "eval.device must be cpu or cuda, got %q", c.Eval.Device)
	}
	if c.Eval.Workers < 1 {
		return common.Errorf(common.ErrInvalidConfig, "eval.workers must be at least 1, got %d", c.Eval.Workers)
	}
	if c.Eval.TopK < 1 {
		return common.Errorf(common.ErrInvalidConfig, "eval.top_k must be at least 1, got %d", c.Eval.TopK)
	}
	if c.Eval.Resize < 0 {
		return common.Errorf(common.ErrInvalidConfig, "eval.resize must not be negative, got %d", c.Eval.Resize)
	}
	if c.Output.F1Dir == "" || c.Output.ConfusionDir == "" || c.Output.ReportDir == "" {
		return common.Errorf(common.ErrInvalidConfig, "output directories must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return common.Errorf(common.ErrInvalidConfig, "invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return common.Errorf(common.ErrInvalidConfig, "invalid log format: %s", c.Logging.Format)
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
