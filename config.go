package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	PGConn              string   `env:"PGCONN,required,notEmpty"`
	ClientID            string   `env:"CLIENT_ID,required,notEmpty"`
	ClientSecret        string   `env:"CLIENT_SECRET,required,notEmpty"`
	Admins              []string `env:"ADMINS,required,notEmpty" envSeparator:","`
	Addr                string   `env:"ADDR" envDefault:":8080"`
	MaxConcurrentSolves int64    `env:"MAX_CONCURRENT_SOLVES" envDefault:"2"`
	LogLevel            string   `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	for i, a := range cfg.Admins {
		cfg.Admins[i] = strings.TrimSpace(a)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(email string) bool {
	return slices.Contains(c.Admins, email)
}

func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
