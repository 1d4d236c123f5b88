package ecs

import (
	"log"
	"time"
)

type config struct {
	registry            *ComponentRegistry
	logger              *log.Logger
	failurePolicy       FailurePolicy
	slowSystemThreshold time.Duration
}

// Option configures an Environment.
type Option func(*config)

// WithRegistry uses a pre-populated or shared component registry.
func WithRegistry(registry *ComponentRegistry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithLogger sets the logger used for system failures and slow-system
// warnings. The default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithFailurePolicy sets how a pass reacts to a failing system.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(c *config) {
		c.failurePolicy = policy
	}
}

// WithSlowSystemThreshold logs a warning whenever a single system execution
// takes longer than d. Zero disables the check.
func WithSlowSystemThreshold(d time.Duration) Option {
	return func(c *config) {
		c.slowSystemThreshold = d
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{
		failurePolicy: FailIsolate,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = NewComponentRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	return cfg
}
