package main

import (
	"fmt"
	"os"
	"time"

	"shunyata/internal/agent/lockdown"
	"shunyata/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:5001"
	defaultServerURL       = "http://127.0.0.1:8000"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultCompileTimeout  = 10 * time.Second
	defaultServerTimeout   = 30 * time.Second
	defaultProblemTTL      = 30 * time.Second
	defaultJobRetention    = 100
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// JudgeServerConfig holds settings for reaching the central judge.
type JudgeServerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RunConfig holds local sandbox settings.
type RunConfig struct {
	WorkRoot       string        `yaml:"workRoot"`
	CompileTimeout time.Duration `yaml:"compileTimeout"`
	ProblemTTL     time.Duration `yaml:"problemTTL"`
	JobRetention   int           `yaml:"jobRetention"`
}

// AppConfig holds agent config.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Logger      logger.Config     `yaml:"logger"`
	JudgeServer JudgeServerConfig `yaml:"judgeServer"`
	Run         RunConfig         `yaml:"run"`
	Lockdown    lockdown.Config   `yaml:"lockdown"`
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
	if cfg.JudgeServer.URL == "" {
		cfg.JudgeServer.URL = defaultServerURL
	}
	if cfg.JudgeServer.Timeout == 0 {
		cfg.JudgeServer.Timeout = defaultServerTimeout
	}
	if cfg.Run.WorkRoot == "" {
		cfg.Run.WorkRoot = os.TempDir()
	}
	if cfg.Run.CompileTimeout == 0 {
		cfg.Run.CompileTimeout = defaultCompileTimeout
	}
	if cfg.Run.ProblemTTL == 0 {
		cfg.Run.ProblemTTL = defaultProblemTTL
	}
	if cfg.Run.JobRetention <= 0 {
		cfg.Run.JobRetention = defaultJobRetention
	}
	return &cfg, nil
}
