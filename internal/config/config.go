package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "autopilot.cfg.json"

// FlightConfig holds the operator scalars fed to the compiler.
type FlightConfig struct {
	DistanceUnit float64 `json:"distanceUnit" mapstructure:"distanceUnit"`
	Speed        int     `json:"speed" mapstructure:"speed"`
	Scale        float64 `json:"scale" mapstructure:"scale"`
	VoxelSize    float64 `json:"voxelSize" mapstructure:"voxelSize"`
}

// PlaybackConfig holds the playback delay table and deferred transitions.
type PlaybackConfig struct {
	TakeoffDelay    time.Duration `json:"takeoffDelay" mapstructure:"takeoffDelay"`
	MoveDelay       time.Duration `json:"moveDelay" mapstructure:"moveDelay"`
	RotateDelay     time.Duration `json:"rotateDelay" mapstructure:"rotateDelay"`
	HoldDelay       time.Duration `json:"holdDelay" mapstructure:"holdDelay"`
	LandDelay       time.Duration `json:"landDelay" mapstructure:"landDelay"`
	ReturnHomeAfter time.Duration `json:"returnHomeAfter" mapstructure:"returnHomeAfter"`
	ReleaseAfter    time.Duration `json:"releaseAfter" mapstructure:"releaseAfter"`
	TakeoffHeight   float64       `json:"takeoffHeight" mapstructure:"takeoffHeight"`
}

// MemoryConfig holds in-memory/file storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	Format         string `json:"format" mapstructure:"format"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// WebSocketConfig holds visualizer streaming settings
type WebSocketConfig struct {
	URL        string        `json:"url" mapstructure:"url"`
	Secret     string        `json:"secret" mapstructure:"secret"`
	TokenTTL   time.Duration `json:"tokenTTL" mapstructure:"tokenTTL"`
	AckTimeout time.Duration `json:"ackTimeout" mapstructure:"ackTimeout"`
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	PlanCache int             `json:"planCache" mapstructure:"planCache"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig  `json:"postgres" mapstructure:"postgres"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// TransportConfig holds the drone link settings
type TransportConfig struct {
	Address      string        `json:"address" mapstructure:"address"`
	LocalAddress string        `json:"localAddress" mapstructure:"localAddress"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	Retries      int           `json:"retries" mapstructure:"retries"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// LogConfig holds log file and sink settings
type LogConfig struct {
	Level          string `json:"level" mapstructure:"level"`
	Dir            string `json:"dir" mapstructure:"dir"`
	MaxSizeMB      int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups     int    `json:"maxBackups" mapstructure:"maxBackups"`
	MaxAgeDays     int    `json:"maxAgeDays" mapstructure:"maxAgeDays"`
	Compress       bool   `json:"compress" mapstructure:"compress"`
	GraylogEnabled bool   `json:"graylogEnabled" mapstructure:"graylogEnabled"`
	GraylogAddress string `json:"graylogAddress" mapstructure:"graylogAddress"`
}

// GeoConfig anchors the scene origin on the globe
type GeoConfig struct {
	HomeLat float64 `json:"homeLat" mapstructure:"homeLat"`
	HomeLon float64 `json:"homeLon" mapstructure:"homeLon"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logs.maxSizeMB", 20)
	viper.SetDefault("logs.maxBackups", 5)
	viper.SetDefault("logs.maxAgeDays", 14)
	viper.SetDefault("logs.compress", true)
	viper.SetDefault("defaultTag", "Preview")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("flight.distanceUnit", 1.0)
	viper.SetDefault("flight.speed", 50)
	viper.SetDefault("flight.scale", 10.0)
	viper.SetDefault("flight.voxelSize", 10.0)

	viper.SetDefault("playback.takeoffDelay", "5s")
	viper.SetDefault("playback.moveDelay", "3s")
	viper.SetDefault("playback.rotateDelay", "2s")
	viper.SetDefault("playback.holdDelay", "3s")
	viper.SetDefault("playback.landDelay", "3s")
	viper.SetDefault("playback.returnHomeAfter", "10s")
	viper.SetDefault("playback.releaseAfter", "4.5s")
	viper.SetDefault("playback.takeoffHeight", 1.0)

	viper.SetDefault("transport.address", "192.168.10.1:8889")
	viper.SetDefault("transport.localAddress", ":8889")
	viper.SetDefault("transport.timeout", "7s")
	viper.SetDefault("transport.retries", 1)
	viper.SetDefault("transport.deliveryTimeout", "5m")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.planCache", 32)
	viper.SetDefault("storage.memory.outputDir", "./plans")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.memory.format", "json")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./plans/autopilot.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "autopilot")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/ws/flights")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.websocket.tokenTTL", "5m")
	viper.SetDefault("storage.websocket.ackTimeout", "5s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "autopilot")
	viper.SetDefault("influx.bucket", "flights")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "autopilot")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("geo.homeLat", 0.0)
	viper.SetDefault("geo.homeLon", 0.0)

	viper.SetDefault("monitor.interval", "30s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// LoadDefaults applies defaults without reading a file.
func LoadDefaults() {
	setDefaults()
}

// RegisterFlags defines the command line overrides on fs and binds them to their
// config keys. Flags win over the file.
func RegisterFlags(fs *pflag.FlagSet) error {
	fs.String("config-dir", ".", "directory containing "+FileName)
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("storage", "memory", "storage backend (memory, sqlite, postgres, websocket)")
	fs.Float64("distance-unit", 1, "meters per tap")
	fs.Int("speed", 50, "flight speed in cm/s")
	fs.Float64("scale", 10, "edge length of the build volume, 0 disables limits")
	fs.String("drone", "192.168.10.1:8889", "drone SDK address")

	bindings := map[string]string{
		"logLevel":            "log-level",
		"storage.type":        "storage",
		"flight.distanceUnit": "distance-unit",
		"flight.speed":        "speed",
		"flight.scale":        "scale",
		"transport.address":   "drone",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetFlightConfig returns the compiler scalars
func GetFlightConfig() FlightConfig {
	return FlightConfig{
		DistanceUnit: viper.GetFloat64("flight.distanceUnit"),
		Speed:        viper.GetInt("flight.speed"),
		Scale:        viper.GetFloat64("flight.scale"),
		VoxelSize:    viper.GetFloat64("flight.voxelSize"),
	}
}

// GetPlaybackConfig returns the playback timings
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		TakeoffDelay:    viper.GetDuration("playback.takeoffDelay"),
		MoveDelay:       viper.GetDuration("playback.moveDelay"),
		RotateDelay:     viper.GetDuration("playback.rotateDelay"),
		HoldDelay:       viper.GetDuration("playback.holdDelay"),
		LandDelay:       viper.GetDuration("playback.landDelay"),
		ReturnHomeAfter: viper.GetDuration("playback.returnHomeAfter"),
		ReleaseAfter:    viper.GetDuration("playback.releaseAfter"),
		TakeoffHeight:   viper.GetFloat64("playback.takeoffHeight"),
	}
}

// GetStorageConfig returns the storage configuration
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:      viper.GetString("storage.type"),
		PlanCache: viper.GetInt("storage.planCache"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			Format:         viper.GetString("storage.memory.format"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
		WebSocket: WebSocketConfig{
			URL:        viper.GetString("storage.websocket.url"),
			Secret:     viper.GetString("storage.websocket.secret"),
			TokenTTL:   viper.GetDuration("storage.websocket.tokenTTL"),
			AckTimeout: viper.GetDuration("storage.websocket.ackTimeout"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetTransportConfig returns the drone link configuration
func GetTransportConfig() TransportConfig {
	return TransportConfig{
		Address:      viper.GetString("transport.address"),
		LocalAddress: viper.GetString("transport.localAddress"),
		Timeout:      viper.GetDuration("transport.timeout"),
		Retries:      viper.GetInt("transport.retries"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetLogConfig returns the logging configuration
func GetLogConfig() LogConfig {
	return LogConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		MaxSizeMB:      viper.GetInt("logs.maxSizeMB"),
		MaxBackups:     viper.GetInt("logs.maxBackups"),
		MaxAgeDays:     viper.GetInt("logs.maxAgeDays"),
		Compress:       viper.GetBool("logs.compress"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetGeoConfig returns the scene anchor
func GetGeoConfig() GeoConfig {
	return GeoConfig{
		HomeLat: viper.GetFloat64("geo.homeLat"),
		HomeLon: viper.GetFloat64("geo.homeLon"),
	}
}
