package main

import (
	"fmt"
	"os"
	"time"

	"shunyata/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8000"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultCompileTimeout  = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// JudgeConfig holds judging settings.
type JudgeConfig struct {
	WorkRoot       string        `yaml:"workRoot"`
	CompileTimeout time.Duration `yaml:"compileTimeout"`
}

// StorageConfig holds the flat-file data paths.
type StorageConfig struct {
	ProblemsPath   string `yaml:"problemsPath"`
	SubmissionsDir string `yaml:"submissionsDir"`
	ScoreboardPath string `yaml:"scoreboardPath"`
}

// PlagiarismConfig holds detector settings.
type PlagiarismConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// AppConfig holds judge-server config.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Logger     logger.Config    `yaml:"logger"`
	Judge      JudgeConfig      `yaml:"judge"`
	Storage    StorageConfig    `yaml:"storage"`
	Plagiarism PlagiarismConfig `yaml:"plagiarism"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Storage.ProblemsPath == "" {
		return nil, fmt.Errorf("storage.problemsPath is required")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Judge.WorkRoot == "" {
		cfg.Judge.WorkRoot = os.TempDir()
	}
	if cfg.Judge.CompileTimeout == 0 {
		cfg.Judge.CompileTimeout = defaultCompileTimeout
	}
	if cfg.Storage.SubmissionsDir == "" {
		cfg.Storage.SubmissionsDir = "data/submissions"
	}
	if cfg.Storage.ScoreboardPath == "" {
		cfg.Storage.ScoreboardPath = "data/scoreboard.json"
	}
	return &cfg, nil
}
