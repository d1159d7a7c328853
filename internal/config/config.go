package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreEtcd     = "etcd"
	StorePostgres = "postgres"
)

type Config struct {
	KubeConfig          string
	KubeMaster          string
	KubeCapacityCluster string
	KubeNodeSelector    string
	LogLevel            string
	LogFormat           string
	HTTPPort            string
	MetricsPort         string
	PingerInterval      time.Duration
	RetryDelay          time.Duration
	RetryBudget         int
	FaultBudget         int
	Workers             int
	QueueSize           int
	DependencyGating    bool
	AuditSchedule       string
	AuditTZ             string
	Store               string
	StorePrefix         string
	StoreConnectTimeout time.Duration
	RedisAddr           string
	RedisDB             int
	EtcdEndpoints       []string
	PostgresDSN         string
	SeedFile            string
	TerminationFile     string
	ShutdownTimeout     time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		KubeConfig:          getEnvWithFallback(envKeyKubeConfig, envKeyKubeConfigFallback),
		KubeMaster:          getEnvWithFallback(envKeyKubeMaster, envKeyKubeMasterFallback),
		KubeCapacityCluster: os.Getenv(envKeyKubeCapacityCluster),
		KubeNodeSelector:    os.Getenv(envKeyKubeNodeSelector),
		LogLevel:            getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:           getEnvOrDefault(envKeyLogFormat, "json"),
		HTTPPort:            getEnvOrDefault(envKeyHTTPPort, "8080"),
		MetricsPort:         getEnvOrDefault(envKeyMetricsPort, "9090"),
		AuditSchedule:       getEnvOrDefault(envKeyAuditSchedule, "*/5 * * * *"),
		AuditTZ:             getEnvOrDefault(envKeyAuditTZ, "UTC"),
		Store:               strings.ToLower(getEnvOrDefault(envKeyStore, StoreMemory)),
		StorePrefix:         getEnvOrDefault(envKeyStorePrefix, "/admission"),
		RedisAddr:           getEnvOrDefault(envKeyRedisAddr, "localhost:6379"),
		PostgresDSN:         os.Getenv(envKeyPostgresDSN),
		SeedFile:            os.Getenv(envKeySeedFile),
		TerminationFile:     getEnvOrDefault(envKeyTerminationFile, "/mnt/signal/terminating"),
		EtcdEndpoints:       splitList(getEnvOrDefault(envKeyEtcdEndpoints, "localhost:2379")),
	}

	var err error

	if cfg.PingerInterval, err = parseDuration(envKeyPingerInterval, "10s", envMinPingerInterval); err != nil {
		return nil, err
	}

	if cfg.RetryDelay, err = parseDuration(envKeyRetryDelay, "60s", envMinRetryDelay); err != nil {
		return nil, err
	}

	if cfg.StoreConnectTimeout, err = parseDuration(
		envKeyStoreConnectTimeout, "30s", envMinStoreConnectTimeout,
	); err != nil {
		return nil, err
	}

	if cfg.ShutdownTimeout, err = parseDuration(envKeyShutdownTimeout, "15s", envMinShutdownTimeout); err != nil {
		return nil, err
	}

	if cfg.RetryBudget, err = parseInt(envKeyRetryBudget, "3", 0); err != nil {
		return nil, err
	}

	if cfg.FaultBudget, err = parseInt(envKeyFaultBudget, "3", 0); err != nil {
		return nil, err
	}

	if cfg.Workers, err = parseInt(envKeyWorkers, "4", 1); err != nil {
		return nil, err
	}

	if cfg.QueueSize, err = parseInt(envKeyQueueSize, "1024", 1); err != nil {
		return nil, err
	}

	if cfg.RedisDB, err = parseInt(envKeyRedisDB, "0", 0); err != nil {
		return nil, err
	}

	gating := getEnvOrDefault(envKeyDependencyGating, "false")

	cfg.DependencyGating, err = strconv.ParseBool(gating)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", envKeyDependencyGating, err)
	}

	if err := cfg.validateStore(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateStore() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	case StoreEtcd:
		if len(c.EtcdEndpoints) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingSetting, envKeyEtcdEndpoints)
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, envKeyPostgresDSN)
		}
	default:
		return fmt.Errorf("%w: %s=%q", ErrUnknownStore, envKeyStore, c.Store)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func getEnvWithFallback(key, fallbackKey string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return os.Getenv(fallbackKey)
}

func parseDuration(key, defaultValue string, minValue time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if d < minValue {
		return 0, fmt.Errorf("%s: %w: %s < %s", key, ErrBelowMinimum, d, minValue)
	}

	return d, nil
}

func parseInt(key, defaultValue string, minValue int) (int, error) {
	n, err := strconv.Atoi(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if n < minValue {
		return 0, fmt.Errorf("%s: %w: %d < %d", key, ErrBelowMinimum, n, minValue)
	}

	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
