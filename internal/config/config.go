package config // package config loads application configuration from environment variables

import (
    "fmt"     // fmt wraps overlay errors
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"

    "gopkg.in/yaml.v3" // yaml decodes the optional tuning overlay
)

// Config holds all runtime configuration values.  Most fields correspond
// to an environment variable; the Worker, LLM and MQTT sections may also
// come from the YAML file named by SEATS_CONFIG_FILE.  Environment
// variables win over the file.
type Config struct {
    Env        string // application environment (e.g. "dev", "prod")
    Port       string // HTTP port to listen on
    LogLevel   string // debug, info, warn or error
    DBDriver   string // "sqlite" (default) or "mysql"
    DBUser     string // database username (mysql)
    DBPass     string // database password (optional)
    DBHost     string // database host address (mysql)
    DBPort     string // database port number (mysql)
    DBName     string // database name (mysql)
    SQLitePath string // database file (sqlite)
    SeedDemo   bool   // fill an empty database with demo seats
    JWTSecret  string // when set, chat requests need a bearer token signed with it
    AMQPURL    string // RabbitMQ url; empty disables broker integration

    Worker WorkerConfig `yaml:"worker"`
    LLM    LLMConfig    `yaml:"llm"`
    MQTT   MQTTConfig   `yaml:"mqtt"`
    Mirror MirrorConfig `yaml:"mirror"`
}

// WorkerConfig tunes the drift worker.
type WorkerConfig struct {
    Interval     time.Duration `yaml:"interval"`      // wait between tick completions
    TickTimeout  time.Duration `yaml:"tick_timeout"`  // upper bound for one tick
    DriftRatio   float64       `yaml:"drift_ratio"`   // max share of seats changed per tick
    TargetRatio  float64       `yaml:"target_ratio"`  // occupancy the simulator steers toward
    Seed         uint64        `yaml:"seed"`          // random seed; 0 picks one from the clock
    HistoryEvery time.Duration `yaml:"history_every"` // spacing of stored occupancy samples
}

// LLMConfig describes the text-generation backend.
type LLMConfig struct {
    EndpointURL string        `yaml:"endpoint_url"`
    APIKey      string        `yaml:"-"` // secrets only from the environment
    Model       string        `yaml:"model"`
    Timeout     time.Duration `yaml:"timeout"`
    MaxRetries  int           `yaml:"max_retries"`
}

// MQTTConfig describes the seat sensor broker.  An empty BrokerURL
// disables the subscriber.
type MQTTConfig struct {
    BrokerURL string `yaml:"broker_url"`
    Topic     string `yaml:"topic"`
    ClientID  string `yaml:"client_id"`
}

// MirrorConfig controls the Redis snapshot mirror.
type MirrorConfig struct {
    Enabled bool          `yaml:"enabled"`
    Prefix  string        `yaml:"prefix"`
    TTL     time.Duration `yaml:"ttl"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
    return Config{
        Env:        "dev",
        Port:       "8080",
        LogLevel:   "info",
        DBDriver:   "sqlite",
        SQLitePath: "data/seats.db",
        SeedDemo:   true,
        Worker: WorkerConfig{
            Interval:    60 * time.Second,
            TickTimeout: 30 * time.Second,
            DriftRatio:  0.06,
            TargetRatio: 0.65,

            HistoryEvery: 15 * time.Minute,
        },
        LLM: LLMConfig{
            Model:      "gemini-1.5-flash",
            Timeout:    30 * time.Second,
            MaxRetries: 2,
        },
        MQTT:   MQTTConfig{Topic: "seats/+/occupancy"},
        Mirror: MirrorConfig{Enabled: true, Prefix: "seats:snapshot", TTL: 10 * time.Minute},
    }
}

// Load builds a Config from defaults, the optional YAML overlay and the
// environment, in that order.  MySQL settings are required when
// DB_DRIVER=mysql; a missing one halts the program like the other
// required variables.
func Load() (Config, error) {
    cfg := Defaults()
    if path := os.Getenv("SEATS_CONFIG_FILE"); path != "" {
        if err := cfg.loadFile(path); err != nil {
            return Config{}, fmt.Errorf("config overlay %s: %w", path, err)
        }
    }
    cfg.applyEnv()
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// loadFile merges a YAML file into c.
func (c *Config) loadFile(path string) error {
    data, err := os.ReadFile(path)
    if err != nil {
        return err
    }
    return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
    c.Env = envStr("APP_ENV", c.Env)                   // environment (dev/test/prod)
    c.Port = envStr("APP_PORT", c.Port)                // port to bind the HTTP server
    c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)       // log verbosity
    c.DBDriver = envStr("DB_DRIVER", c.DBDriver)       // sqlite or mysql
    c.SQLitePath = envStr("SQLITE_PATH", c.SQLitePath) // sqlite file
    c.SeedDemo = envBool("SEED_DEMO", c.SeedDemo)      // demo layout on empty db
    c.JWTSecret = os.Getenv("JWT_SECRET")              // optional
    c.AMQPURL = envStr("RABBITMQ_URL", envStr("AMQP_URL", c.AMQPURL))

    if c.DBDriver == "mysql" {
        c.DBUser = must("DB_USER")      // database user
        c.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
        c.DBHost = must("DB_HOST")      // database host
        c.DBPort = must("DB_PORT")      // database port
        c.DBName = must("DB_NAME")      // database name
    }

    if s := os.Getenv("SEAT_REFRESH_INTERVAL_SECONDS"); s != "" {
        c.Worker.Interval = time.Duration(mustInt("SEAT_REFRESH_INTERVAL_SECONDS")) * time.Second
    }
    c.Worker.Interval = envDur("SEAT_REFRESH_INTERVAL", c.Worker.Interval)
    c.Worker.TickTimeout = envDur("SEAT_TICK_TIMEOUT", c.Worker.TickTimeout)
    c.Worker.DriftRatio = envFloat("SEAT_REFRESH_DRIFT_RATIO", c.Worker.DriftRatio)
    c.Worker.TargetRatio = envFloat("SEAT_TARGET_OCCUPANCY_RATIO", c.Worker.TargetRatio)
    c.Worker.Seed = uint64(envInt("SEAT_DRIFT_SEED", int(c.Worker.Seed)))
    c.Worker.HistoryEvery = envDur("OCCUPANCY_HISTORY_INTERVAL", c.Worker.HistoryEvery)

    c.LLM.EndpointURL = envStr("GEMINI_ENDPOINT_URL", c.LLM.EndpointURL)
    c.LLM.APIKey = envStr("GEMINI_API_KEY", c.LLM.APIKey)
    c.LLM.Model = envStr("GEMINI_MODEL", c.LLM.Model)
    if s := os.Getenv("GEMINI_REQUEST_TIMEOUT_SECONDS"); s != "" {
        c.LLM.Timeout = time.Duration(mustInt("GEMINI_REQUEST_TIMEOUT_SECONDS")) * time.Second
    }
    c.LLM.MaxRetries = envInt("GEMINI_MAX_RETRIES", c.LLM.MaxRetries)

    c.MQTT.BrokerURL = envStr("MQTT_BROKER_URL", c.MQTT.BrokerURL)
    c.MQTT.Topic = envStr("MQTT_TOPIC", c.MQTT.Topic)
    c.MQTT.ClientID = envStr("MQTT_CLIENT_ID", c.MQTT.ClientID)

    c.Mirror.Enabled = envBool("SNAPSHOT_MIRROR_ENABLED", c.Mirror.Enabled)
    c.Mirror.Prefix = envStr("SNAPSHOT_MIRROR_PREFIX", c.Mirror.Prefix)
    c.Mirror.TTL = envDur("SNAPSHOT_MIRROR_TTL", c.Mirror.TTL)
}

// Validate rejects values the worker cannot run with.
func (c Config) Validate() error {
    switch c.DBDriver {
    case "sqlite", "mysql":
    default:
        return fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
    }
    if c.Worker.Interval <= 0 {
        return fmt.Errorf("worker interval must be positive, got %s", c.Worker.Interval)
    }
    if c.Worker.DriftRatio < 0 || c.Worker.DriftRatio > 1 {
        return fmt.Errorf("drift ratio must be within [0,1], got %v", c.Worker.DriftRatio)
    }
    if c.Worker.TargetRatio < 0 || c.Worker.TargetRatio > 1 {
        return fmt.Errorf("target ratio must be within [0,1], got %v", c.Worker.TargetRatio)
    }
    if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 3 {
        return fmt.Errorf("llm max retries must be within [0,3], got %d", c.LLM.MaxRetries)
    }
    return nil
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func envFloat(k string, d float64) float64 {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if f, err := strconv.ParseFloat(v, 64); err == nil {
        return f
    }
    return d
}
