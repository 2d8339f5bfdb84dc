// Package config loads tsvload settings from a YAML/JSON file and TSVLOAD_*
// environment variables through viper. Defaults are set in code, so an empty
// environment loads the seven IMDb files from ./data into ./imdb.db.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tsvload/internal/schema"
)

// EnvPrefix prefixes environment overrides, e.g. TSVLOAD_STORAGE_DSN.
const EnvPrefix = "TSVLOAD"

// Config is the decoded configuration.
type Config struct {
	Storage Storage    `mapstructure:"storage"`
	Load    LoadConfig `mapstructure:"load"`
	Log     Log        `mapstructure:"log"`
	Metrics Metrics    `mapstructure:"metrics"`
	Fetch   Fetch      `mapstructure:"fetch"`
}

// Storage selects the destination store.
type Storage struct {
	Kind string `mapstructure:"kind"`
	DSN  string `mapstructure:"dsn"`
}

// LoadConfig tunes the bulk loader.
type LoadConfig struct {
	DataDir      string               `mapstructure:"data_dir"`
	BatchSize    int                  `mapstructure:"batch_size"`
	CommitEvery  int64                `mapstructure:"commit_every"`
	BulkMode     bool                 `mapstructure:"bulk_mode"`
	CreateTables bool                 `mapstructure:"create_tables"`
	StopOnError  bool                 `mapstructure:"stop_on_error"`
	Files        []schema.FileMapping `mapstructure:"files"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Metrics selects the metrics backend: "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string `mapstructure:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`

	// DogStatsD settings for the datadog backend.
	StatsdAddr string   `mapstructure:"statsd_addr"`
	Namespace  string   `mapstructure:"namespace"`
	Tags       []string `mapstructure:"tags"`
}

// Fetch configures the page downloader.
type Fetch struct {
	Input     string        `mapstructure:"input"`
	OutputDir string        `mapstructure:"output_dir"`
	Delay     time.Duration `mapstructure:"delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	// Cookies are "name=value" strings; viper lower-cases map keys, which
	// would break case-sensitive cookie names.
	Cookies []string `mapstructure:"cookies"`
}

// CookieMap parses Cookies. Entries without "=" are returned as errors.
func (f Fetch) CookieMap() (map[string]string, error) {
	out := make(map[string]string, len(f.Cookies))
	for _, c := range f.Cookies {
		name, value, ok := strings.Cut(c, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid cookie %q: want name=value", c)
		}
		out[name] = value
	}
	return out, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.kind", "sqlite")
	v.SetDefault("storage.dsn", "imdb.db")

	v.SetDefault("load.data_dir", "data")
	v.SetDefault("load.batch_size", 10_000)
	v.SetDefault("load.commit_every", 1_000_000)
	v.SetDefault("load.bulk_mode", true)
	v.SetDefault("load.create_tables", true)
	v.SetDefault("load.stop_on_error", false)
	v.SetDefault("load.files", defaultFiles())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("metrics.backend", "none")
	v.SetDefault("metrics.job", "tsvload")
	v.SetDefault("metrics.statsd_addr", "127.0.0.1:8125")

	v.SetDefault("fetch.input", "response.json")
	v.SetDefault("fetch.output_dir", "output/downloaded_html")
	v.SetDefault("fetch.delay", 5*time.Second)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.retries", 0)
}

// defaultFiles renders the IMDb mapping as plain maps so viper can merge it
// with file-provided lists.
func defaultFiles() []map[string]any {
	var out []map[string]any
	for _, m := range schema.IMDbFiles() {
		out = append(out, map[string]any{"file": m.File, "table": m.Table})
	}
	return out
}

// New returns a viper instance with defaults and env overrides wired. When
// path is non-empty it is read as the config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Kind = strings.ToLower(strings.TrimSpace(cfg.Storage.Kind))
	cfg.Metrics.Backend = strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	return &cfg, nil
}

// ParseMapping parses "file=table" pairs as given on the command line.
func ParseMapping(pairs []string) ([]schema.FileMapping, error) {
	out := make([]schema.FileMapping, 0, len(pairs))
	for _, p := range pairs {
		file, table, ok := strings.Cut(p, "=")
		file, table = strings.TrimSpace(file), strings.TrimSpace(table)
		if !ok || file == "" || table == "" {
			return nil, fmt.Errorf("invalid mapping %q: want file=table", p)
		}
		out = append(out, schema.FileMapping{File: file, Table: table})
	}
	return out, nil
}
