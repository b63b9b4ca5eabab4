package config

import "time"

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Object store backends.
const (
	ObjectStoreFS = "fs"
	ObjectStoreS3 = "s3"
)

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Auth        AuthConfig        `yaml:"auth"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"26214400"`
}

// DatabaseConfig holds catalog connection settings.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"postgres"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"false"`
}

// ObjectStoreConfig selects and configures the blob store.
type ObjectStoreConfig struct {
	Backend        string `yaml:"backend"           env:"OBJECT_STORE_BACKEND"  env-default:"fs"`
	Root           string `yaml:"root"              env:"OBJECT_STORE_ROOT"     env-default:"./vault"`
	S3Bucket       string `yaml:"s3_bucket"         env:"S3_BUCKET"`
	S3Region       string `yaml:"s3_region"         env:"S3_REGION"             env-default:"us-east-1"`
	S3Endpoint     string `yaml:"s3_endpoint"       env:"S3_ENDPOINT"`
	S3AccessKey    string `yaml:"s3_access_key"     env:"S3_ACCESS_KEY"`
	S3SecretKey    string `yaml:"s3_secret_key"     env:"S3_SECRET_KEY"`
	S3Prefix       string `yaml:"s3_prefix"         env:"S3_PREFIX"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style" env:"S3_USE_PATH_STYLE"     env-default:"true"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"          env:"AUTH_JWT_SECRET"          env-required:"true"`
	JWTIssuer          string        `yaml:"jwt_issuer"          env:"AUTH_JWT_ISSUER"          env-default:"cui-inspector"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"    env:"AUTH_ACCESS_TOKEN_TTL"    env-default:"30m"`
	PasswordIterations int           `yaml:"password_iterations" env:"AUTH_PASSWORD_ITERATIONS" env-default:"200000"`
	LoginRatePerMinute int           `yaml:"login_rate_per_min"  env:"AUTH_LOGIN_RATE_PER_MIN"  env-default:"10"`
}

// AnalysisConfig holds rule engine settings.
type AnalysisConfig struct {
	DefaultRuleset    string `yaml:"default_ruleset"     env:"ANALYSIS_DEFAULT_RULESET"     env-default:"Basic"`
	RulesetsPath      string `yaml:"rulesets_path"       env:"ANALYSIS_RULESETS_PATH"`
	IndexExcerptChars int    `yaml:"index_excerpt_chars" env:"ANALYSIS_INDEX_EXCERPT_CHARS" env-default:"1200"`
	BulkWorkers       int    `yaml:"bulk_workers"        env:"ANALYSIS_BULK_WORKERS"        env-default:"4"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
