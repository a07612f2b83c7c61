package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "filmstats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Outputs   OutputsConfig   `yaml:"outputs" envconfig:"OUTPUTS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Watch     WatchConfig     `yaml:"watch" envconfig:"WATCH"`
}

// PathsConfig contains file system paths. Relative directories resolve
// against BaseDir.
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// PipelineConfig holds the thresholds used by the aggregate and analysis
// reports.
type PipelineConfig struct {
	TopRatedMinRatings   int64 `yaml:"top_rated_min_ratings" envconfig:"TOP_RATED_MIN_RATINGS" validate:"min=0"`
	TopRatedLimit        int   `yaml:"top_rated_limit" envconfig:"TOP_RATED_LIMIT" validate:"min=1"`
	GenreReportThreshold int64 `yaml:"genre_report_threshold" envconfig:"GENRE_REPORT_THRESHOLD" validate:"min=0"`
	GenreChartThreshold  int64 `yaml:"genre_chart_threshold" envconfig:"GENRE_CHART_THRESHOLD" validate:"min=0"`
	TopGenres            int   `yaml:"top_genres" envconfig:"TOP_GENRES" validate:"min=1"`
	HistogramWidth       int   `yaml:"histogram_width" envconfig:"HISTOGRAM_WIDTH" validate:"min=1,max=200"`
	SkipBadLines         bool  `yaml:"skip_bad_lines" envconfig:"SKIP_BAD_LINES"`
}

// OutputsConfig toggles the optional report artifacts
type OutputsConfig struct {
	Charts   bool `yaml:"charts" envconfig:"CHARTS"`
	Workbook bool `yaml:"workbook" envconfig:"WORKBOOK"`
	BSON     bool `yaml:"bson" envconfig:"BSON"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// JobRetention is how long finished API jobs stay queryable
	JobRetention time.Duration `yaml:"job_retention" envconfig:"JOB_RETENTION" validate:"gt=0"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gtfield=PingPeriod"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// WatchConfig controls `run --watch`
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" envconfig:"DEBOUNCE" validate:"gt=0"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:      DefaultDataDir,
			ProcessedDir: DefaultProcessedDir,
			ReportsDir:   DefaultReportsDir,
			LogsDir:      DefaultLogsDir,
		},
		Pipeline: PipelineConfig{
			TopRatedMinRatings:   100,
			TopRatedLimit:        5,
			GenreReportThreshold: 5000,
			GenreChartThreshold:  20000,
			TopGenres:            10,
			HistogramWidth:       40,
			SkipBadLines:         true,
		},
		Outputs: OutputsConfig{
			Charts:   true,
			Workbook: true,
			BSON:     true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/filmstats.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			JobRetention:    24 * time.Hour,
			AllowedOrigins:  []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TracingEnabled: false,
			MetricsEnabled: true,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
	}
}

// Load builds the configuration for baseDir. Precedence, highest first:
// environment (including baseDir/.env), the YAML file, defaults.
// An empty baseDir means the working directory.
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, apperrors.NewConfigError("failed to resolve working directory", err)
		}
		baseDir = wd
	}

	if err := godotenv.Load(filepath.Join(baseDir, DotEnvFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to load .env", err)
	}

	cfg := Default()

	configFile := os.Getenv(EnvPrefix + "_CONFIG")
	if configFile == "" {
		configFile = filepath.Join(baseDir, ConfigFileName)
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if cfg.Paths.BaseDir == "" {
		cfg.Paths.BaseDir = baseDir
	}
	abs, err := filepath.Abs(cfg.Paths.BaseDir)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve base directory", err)
	}
	cfg.Paths.BaseDir = abs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return apperrors.NewConfigError(
				fmt.Sprintf("invalid value for %s (rule %s)", first.Namespace(), first.Tag()), err)
		}
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// ResolvePaths resolves every file location for this configuration
func (c *Config) ResolvePaths() *Paths {
	return NewPaths(c.Paths)
}
