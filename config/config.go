package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// TextFormat selects how text-format result values are spelled for the
// handful of types where PostgreSQL and Cloud Spanner disagree (bool,
// timestamp): POSTGRESQL for a driver that parses the result (psycopg,
// the JDBC driver), SPANNER for a text-only client like psql that just
// prints what comes back.
type TextFormat string

const (
	TextFormatPostgreSQL TextFormat = "POSTGRESQL"
	TextFormatSpanner    TextFormat = "SPANNER"
)

// Config is the proxy's configuration surface, delivered by flags and
// environment variables (stdlib flag, no third-party CLI framework: this
// process has one shot at startup configuration, not the layered
// multi-source problem a framework like viper or cobra exists to solve).
type Config struct {
	ServerPort int

	Project  string
	Instance string
	Database string
	Dataset  string

	CredentialsFile string

	TextFormat  TextFormat
	ForceBinary bool
	Authenticate bool
	Password     string

	PsqlMode            bool
	CommandMetadataFile string
	QueryRewritesFile   string

	BigQueryMode bool

	LogLevel string
}

// Parse populates Config from flags (falling back to environment
// variables, falling back to defaults) and validates it. It calls
// os.Exit(1) on a validation failure, failing fast at startup.
func Parse() *Config {
	cfg := &Config{}
	flag.IntVar(&cfg.ServerPort, "server-port", envInt("PGPROXY_SERVER_PORT", 5432), "TCP listen port")
	flag.StringVar(&cfg.Project, "project", envStr("PGPROXY_PROJECT", ""), "backend project id")
	flag.StringVar(&cfg.Instance, "instance", envStr("PGPROXY_INSTANCE", ""), "Spanner instance id")
	flag.StringVar(&cfg.Database, "database", envStr("PGPROXY_DATABASE", ""), "Spanner database id")
	flag.StringVar(&cfg.Dataset, "dataset", envStr("PGPROXY_DATASET", ""), "BigQuery dataset id")
	flag.StringVar(&cfg.CredentialsFile, "credentials-file", envStr("PGPROXY_CREDENTIALS_FILE", ""), "path to a service account credentials file; empty uses ambient default credentials")
	flag.StringVar((*string)(&cfg.TextFormat), "text-format", envStr("PGPROXY_TEXT_FORMAT", string(TextFormatPostgreSQL)), "POSTGRESQL or SPANNER")
	flag.BoolVar(&cfg.ForceBinary, "force-binary", envBool("PGPROXY_FORCE_BINARY", false), "default extended-query result format to binary")
	flag.BoolVar(&cfg.Authenticate, "authenticate", envBool("PGPROXY_AUTHENTICATE", false), "require cleartext password authentication")
	flag.StringVar(&cfg.Password, "password", envStr("PGPROXY_PASSWORD", ""), "password required when -authenticate is set")
	flag.BoolVar(&cfg.PsqlMode, "psql-mode", envBool("PGPROXY_PSQL_MODE", false), "enable psql meta-command matching")
	flag.StringVar(&cfg.CommandMetadataFile, "command-metadata-file", envStr("PGPROXY_COMMAND_METADATA_FILE", ""), "path to meta-command matchers JSON; requires -psql-mode")
	flag.StringVar(&cfg.QueryRewritesFile, "query-rewrites-file", envStr("PGPROXY_QUERY_REWRITES_FILE", ""), "path to query rewrites JSON")
	flag.BoolVar(&cfg.BigQueryMode, "bigquery-mode", envBool("PGPROXY_BIGQUERY_MODE", false), "target BigQuery instead of Spanner")
	flag.StringVar(&cfg.LogLevel, "log-level", envStr("PGPROXY_LOG_LEVEL", "info"), "zerolog level: debug, info, warn, error")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}

// Validate enforces the configuration's explicit boundaries and the
// dependencies between flags (e.g. command-metadata-file requires
// psql-mode).
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server-port must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.CommandMetadataFile != "" && !c.PsqlMode {
		return fmt.Errorf("command-metadata-file requires -psql-mode")
	}
	if c.TextFormat != TextFormatPostgreSQL && c.TextFormat != TextFormatSpanner {
		return fmt.Errorf("text-format must be POSTGRESQL or SPANNER, got %q", c.TextFormat)
	}
	if c.Authenticate && c.Password == "" {
		return fmt.Errorf("authenticate requires -password")
	}
	if c.BigQueryMode {
		if c.Project == "" || c.Dataset == "" {
			return fmt.Errorf("bigquery-mode requires -project and -dataset")
		}
	} else {
		if c.Project == "" || c.Instance == "" || c.Database == "" {
			return fmt.Errorf("spanner mode requires -project, -instance, and -database")
		}
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
