// Package config provides functionality for managing configuration options
// for the application using a JSON file, command-line flags and environment
// variables.
//
// Sources are applied in order, later ones winning: built-in defaults, the
// JSON file named by -c or CONFIG, flags that were set explicitly, and
// finally environment variables. A .env file in the working directory is
// loaded into the environment first if present.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/atinyakov/linkshelf/internal/app/service"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" env:"SERVER_ADDRESS"`

	// ResultHostname is the base URL used for result links.
	ResultHostname string `json:"base_url" env:"BASE_URL"`

	// RedirectPrefix is the path segment redirects are served under.
	// Empty serves them from the root.
	RedirectPrefix string `json:"redirect_prefix" env:"REDIRECT_PREFIX"`

	// FilePath is the path to the storage file for persistent data.
	FilePath string `json:"file_storage_path" env:"FILE_STORAGE_PATH"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`

	// EnablePprof indicates whether to enable pprof for performance profiling.
	EnablePprof bool `json:"enable_pprof" env:"ENABLE_PPROF"`

	// EnableHTTPS indicates whether to enable https.
	EnableHTTPS bool `json:"enable_https" env:"ENABLE_HTTPS"`

	// TLSHosts lists the hostnames autocert may request certificates for.
	TLSHosts []string `json:"tls_hosts" env:"TLS_HOSTS" envSeparator:","`

	GRPCPort string `json:"grpc_port" env:"GRPC_PORT"`

	// TrustedSubnet is the CIDR allowed to read /metrics. Empty denies everyone.
	TrustedSubnet string `json:"trusted_subnet" env:"TRUSTED_SUBNET"`

	JWTSecret string `json:"jwt_secret" env:"JWT_SECRET"`

	LogLevel  string `json:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" env:"LOG_FORMAT"`

	IDStrategy    string `json:"id_strategy" env:"ID_STRATEGY"`
	IDLength      int    `json:"id_length" env:"ID_LENGTH"`
	IDMaxAttempts int    `json:"id_max_attempts" env:"ID_MAX_ATTEMPTS"`

	CacheEnabled  bool          `json:"cache_enabled" env:"CACHE_ENABLED"`
	CacheMaxItems int64         `json:"cache_max_items" env:"CACHE_MAX_ITEMS"`
	CacheTTL      time.Duration `json:"cache_ttl" env:"CACHE_TTL"`
	RedisAddr     string        `json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `json:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `json:"redis_db" env:"REDIS_DB"`

	TracingEnabled bool   `json:"tracing_enabled" env:"TRACING_ENABLED"`
	OTLPEndpoint   string `json:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName    string `json:"service_name" env:"SERVICE_NAME"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Default returns the options used when nothing else is configured.
func Default() *Options {
	return &Options{
		Port:            "localhost:8080",
		ResultHostname:  "http://localhost:8080",
		RedirectPrefix:  "url",
		GRPCPort:        ":3200",
		JWTSecret:       "supersecretkey",
		LogLevel:        "info",
		LogFormat:       "json",
		IDStrategy:      "random",
		IDLength:        service.DefaultIDLength,
		IDMaxAttempts:   service.DefaultMaxAttempts,
		CacheMaxItems:   10000,
		CacheTTL:        10 * time.Minute,
		OTLPEndpoint:    "127.0.0.1:4317",
		ServiceName:     "linkshelf",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Parse builds Options from args (without the program name) and the
// environment, then validates the result.
func Parse(args []string) (*Options, error) {
	_ = godotenv.Load(".env")

	opts := Default()

	fl := *opts
	var configPath string

	fs := flag.NewFlagSet("linkshelf", flag.ContinueOnError)
	fs.StringVar(&configPath, "c", "", "path to JSON config file")
	fs.StringVar(&fl.Port, "a", fl.Port, "run on ip:port server")
	fs.StringVar(&fl.ResultHostname, "b", fl.ResultHostname, "result base url")
	fs.StringVar(&fl.FilePath, "f", fl.FilePath, "path to storage file")
	fs.StringVar(&fl.DatabaseDSN, "d", fl.DatabaseDSN, "db address")
	fs.BoolVar(&fl.EnablePprof, "p", fl.EnablePprof, "enable pprof")
	fs.BoolVar(&fl.EnableHTTPS, "s", fl.EnableHTTPS, "enable https")
	fs.StringVar(&fl.GRPCPort, "g", fl.GRPCPort, "grpc listen address")
	fs.StringVar(&fl.TrustedSubnet, "t", fl.TrustedSubnet, "trusted subnet CIDR")
	fs.StringVar(&fl.LogLevel, "l", fl.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("CONFIG"); ok && v != "" {
		configPath = v
	}
	if configPath != "" {
		if err := loadFile(configPath, opts); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			opts.Port = fl.Port
		case "b":
			opts.ResultHostname = fl.ResultHostname
		case "f":
			opts.FilePath = fl.FilePath
		case "d":
			opts.DatabaseDSN = fl.DatabaseDSN
		case "p":
			opts.EnablePprof = fl.EnablePprof
		case "s":
			opts.EnableHTTPS = fl.EnableHTTPS
		case "g":
			opts.GRPCPort = fl.GRPCPort
		case "t":
			opts.TrustedSubnet = fl.TrustedSubnet
		case "l":
			opts.LogLevel = fl.LogLevel
		}
	})

	if err := env.Parse(opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

// Duration reads a config file duration written as a string ("10m", "1h30m")
// or as a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = Duration(p)
	case float64:
		*d = Duration(time.Duration(x))
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

func loadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	type plain Options
	file := struct {
		*plain
		CacheTTL        *Duration `json:"cache_ttl"`
		ShutdownTimeout *Duration `json:"shutdown_timeout"`
	}{plain: (*plain)(opts)}

	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	if file.CacheTTL != nil {
		opts.CacheTTL = time.Duration(*file.CacheTTL)
	}
	if file.ShutdownTimeout != nil {
		opts.ShutdownTimeout = time.Duration(*file.ShutdownTimeout)
	}
	return nil
}

// Validate reports every problem found, joined.
func (o *Options) Validate() error {
	var errs []error

	if o.ResultHostname == "" {
		errs = append(errs, errors.New("base url must not be empty"))
	}
	if o.IDLength < service.MinIDLength || o.IDLength > service.MaxIDLength {
		errs = append(errs, fmt.Errorf("id length %d outside [%d, %d]", o.IDLength, service.MinIDLength, service.MaxIDLength))
	}
	if o.IDStrategy == "sqids" && o.IDLength < service.MinSqidsLength {
		errs = append(errs, fmt.Errorf("sqids ids need length >= %d", service.MinSqidsLength))
	}
	if o.IDMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("id max attempts must be positive, got %d", o.IDMaxAttempts))
	}
	if o.TrustedSubnet != "" {
		if _, _, err := net.ParseCIDR(o.TrustedSubnet); err != nil {
			errs = append(errs, fmt.Errorf("trusted subnet: %w", err))
		}
	}
	if o.CacheEnabled && o.CacheMaxItems < 1 {
		errs = append(errs, errors.New("cache max items must be positive"))
	}

	return errors.Join(errs...)
}
