// Package config loads Tarka's runtime configuration from the environment
// using spf13/viper, following the flat-struct-with-mapstructure-tags
// convention of the teacher's internal/config.Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of environment-recognized options from spec.md §6.
type Config struct {
	// Ingestion (C1/C5)
	TimeWindow         time.Duration `mapstructure:"time_window"`
	ClusterName        string        `mapstructure:"cluster_name"`
	AlertnameAllowlist []string      `mapstructure:"alertname_allowlist"`
	BucketHours        int           `mapstructure:"bucket_hours"`

	// Chat / graphs (C8/C9)
	ChatEnabled              bool          `mapstructure:"chat_enabled"`
	ChatMaxToolCalls         int           `mapstructure:"chat_max_tool_calls"`
	ChatMaxSteps             int           `mapstructure:"chat_max_steps"`
	ChatMaxTimeWindowSeconds int           `mapstructure:"chat_max_time_window_seconds"`
	ChatMaxLogLines          int           `mapstructure:"chat_max_log_lines"`
	ChatAllowGithub          bool          `mapstructure:"chat_allow_github"`
	ChatAllowAWS             bool          `mapstructure:"chat_allow_aws"`
	ChatAllowArgoCD          bool          `mapstructure:"chat_allow_argocd"`
	ChatNamespaceAllowlist   []string      `mapstructure:"chat_namespace_allowlist"`
	ChatClusterAllowlist     []string      `mapstructure:"chat_cluster_allowlist"`
	RCAConfidenceThreshold   int           `mapstructure:"rca_confidence_threshold"`

	// Actions (action proposal policy)
	ActionsEnabled        bool     `mapstructure:"actions_enabled"`
	ActionsRequireApproval bool    `mapstructure:"actions_require_approval"`
	ActionsAllowExecute   bool     `mapstructure:"actions_allow_execute"`
	ActionsTypeAllowlist  []string `mapstructure:"actions_type_allowlist"`

	// Evidence providers
	AWSEvidenceEnabled bool `mapstructure:"aws_evidence_enabled"`

	// LLM
	LLMProvider             string `mapstructure:"llm_provider"`
	LLMAPIKey               string `mapstructure:"llm_api_key"`
	LLMModel                string `mapstructure:"llm_model"`
	LLMRedactInfrastructure bool   `mapstructure:"llm_redact_infrastructure"`
	LangsmithTracing        bool   `mapstructure:"langsmith_tracing"`
	LangsmithProject        string `mapstructure:"langsmith_project"`

	// Storage
	PrometheusURL string `mapstructure:"prometheus_url"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	DBAutoMigrate bool   `mapstructure:"db_auto_migrate"`

	RedisURL          string `mapstructure:"redis_url"`
	QueueStreamName   string `mapstructure:"queue_stream_name"`
	ObjectStoreBucket string `mapstructure:"object_store_bucket"`
	ObjectStorePrefix string `mapstructure:"object_store_prefix"`
	ObjectStoreRegion string `mapstructure:"object_store_region"`

	MemoryEnabled bool `mapstructure:"memory_enabled"`

	// HTTP
	Port             int           `mapstructure:"port"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`

	// Worker
	WorkerConcurrency int `mapstructure:"worker_concurrency"`
}

// Load builds a Config from the process environment, applying defaults
// first (mirroring the teacher's SetDefault-then-AutomaticEnv ordering).
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	cfg := &Config{
		TimeWindow:               v.GetDuration("time_window"),
		ClusterName:              v.GetString("cluster_name"),
		AlertnameAllowlist:       splitCSV(v.GetString("alertname_allowlist")),
		BucketHours:              v.GetInt("bucket_hours"),
		ChatEnabled:              v.GetBool("chat_enabled"),
		ChatMaxToolCalls:         clampInt(v.GetInt("chat_max_tool_calls"), 1, 20),
		ChatMaxSteps:             clampInt(v.GetInt("chat_max_steps"), 1, 8),
		ChatMaxTimeWindowSeconds: clampInt(v.GetInt("chat_max_time_window_seconds"), 1, 86400),
		ChatMaxLogLines:          maxInt(v.GetInt("chat_max_log_lines"), 20),
		ChatAllowGithub:          v.GetBool("chat_allow_github"),
		ChatAllowAWS:             v.GetBool("chat_allow_aws"),
		ChatAllowArgoCD:          v.GetBool("chat_allow_argocd"),
		ChatNamespaceAllowlist:   splitCSV(v.GetString("chat_namespace_allowlist")),
		ChatClusterAllowlist:     splitCSV(v.GetString("chat_cluster_allowlist")),
		RCAConfidenceThreshold:   v.GetInt("rca_confidence_threshold"),
		ActionsEnabled:           v.GetBool("actions_enabled"),
		ActionsRequireApproval:   v.GetBool("actions_require_approval"),
		ActionsAllowExecute:      v.GetBool("actions_allow_execute"),
		ActionsTypeAllowlist:     splitCSV(v.GetString("actions_type_allowlist")),
		AWSEvidenceEnabled:       v.GetBool("aws_evidence_enabled"),
		LLMProvider:              v.GetString("llm_provider"),
		LLMAPIKey:                v.GetString("llm_api_key"),
		LLMModel:                 v.GetString("llm_model"),
		LLMRedactInfrastructure:  v.GetBool("llm_redact_infrastructure"),
		LangsmithTracing:         v.GetBool("langsmith_tracing"),
		LangsmithProject:         v.GetString("langsmith_project"),
		PrometheusURL:            v.GetString("prometheus_url"),
		PostgresDSN:              v.GetString("postgres_dsn"),
		DBAutoMigrate:            v.GetBool("db_auto_migrate"),
		RedisURL:                 v.GetString("redis_url"),
		QueueStreamName:          v.GetString("queue_stream_name"),
		ObjectStoreBucket:        v.GetString("object_store_bucket"),
		ObjectStorePrefix:        v.GetString("object_store_prefix"),
		ObjectStoreRegion:        v.GetString("object_store_region"),
		MemoryEnabled:            v.GetBool("memory_enabled"),
		Port:                     v.GetInt("port"),
		RequestTimeout:           v.GetDuration("request_timeout"),
		ShutdownTimeout:          v.GetDuration("shutdown_timeout"),
		AllowedOrigins:           splitCSV(v.GetString("allowed_origins")),
		WorkerConcurrency:        v.GetInt("worker_concurrency"),
	}

	if cfg.BucketHours <= 0 {
		return nil, fmt.Errorf("bucket_hours must be > 0, got %d", cfg.BucketHours)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("time_window", "1h")
	v.SetDefault("cluster_name", "")
	v.SetDefault("bucket_hours", 4)
	v.SetDefault("chat_enabled", true)
	v.SetDefault("chat_max_tool_calls", 20)
	v.SetDefault("chat_max_steps", 8)
	v.SetDefault("chat_max_time_window_seconds", 86400)
	v.SetDefault("chat_max_log_lines", 400)
	v.SetDefault("rca_confidence_threshold", 70)
	v.SetDefault("actions_enabled", false)
	v.SetDefault("actions_require_approval", true)
	v.SetDefault("actions_allow_execute", false)
	v.SetDefault("aws_evidence_enabled", false)
	v.SetDefault("llm_provider", "anthropic")
	v.SetDefault("llm_model", "claude-sonnet-4-5")
	v.SetDefault("llm_redact_infrastructure", false)
	v.SetDefault("db_auto_migrate", false)
	v.SetDefault("queue_stream_name", "tarka:alerts")
	v.SetDefault("object_store_prefix", "reports")
	v.SetDefault("memory_enabled", false)
	v.SetDefault("port", 8080)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("shutdown_timeout", "15s")
	v.SetDefault("worker_concurrency", 4)
}

// bindEnv binds every field to its UPPER_SNAKE_CASE environment variable,
// following the teacher's explicit-BindEnv-per-field convention so that
// env var names are independent of any config file key casing.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"time_window", "cluster_name", "alertname_allowlist", "bucket_hours",
		"chat_enabled", "chat_max_tool_calls", "chat_max_steps",
		"chat_max_time_window_seconds", "chat_max_log_lines",
		"chat_allow_github", "chat_allow_aws", "chat_allow_argocd",
		"chat_namespace_allowlist", "chat_cluster_allowlist",
		"rca_confidence_threshold",
		"actions_enabled", "actions_require_approval", "actions_allow_execute",
		"actions_type_allowlist",
		"aws_evidence_enabled",
		"llm_provider", "llm_api_key", "llm_model", "llm_redact_infrastructure",
		"langsmith_tracing", "langsmith_project",
		"prometheus_url", "postgres_dsn", "db_auto_migrate",
		"redis_url", "queue_stream_name",
		"object_store_bucket", "object_store_prefix", "object_store_region",
		"memory_enabled",
		"port", "request_timeout", "shutdown_timeout", "allowed_origins",
		"worker_concurrency",
	}
	for _, k := range keys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v <= 0 {
		v = hi
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
