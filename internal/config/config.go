package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/OCAP2/hologram/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "hologram.cfg.json"

// SchedulerConfig holds primary task queue settings
type SchedulerConfig struct {
	QueueSize int  `json:"queueSize" mapstructure:"queueSize"`
	Blocking  bool `json:"blocking" mapstructure:"blocking"`
}

// LeaderboardConfig holds the default leaderboard rendering settings
type LeaderboardConfig struct {
	Title        string        `json:"title" mapstructure:"title"`
	Template     string        `json:"template" mapstructure:"template"`
	VisibleRanks int           `json:"visibleRanks" mapstructure:"visibleRanks"`
	Placeholder  string        `json:"placeholder" mapstructure:"placeholder"`
	Footer       string        `json:"footer" mapstructure:"footer"`
	HeadMode     string        `json:"headMode" mapstructure:"headMode"`
	HeadTexture  string        `json:"headTexture" mapstructure:"headTexture"`
	HeadOffset   float64       `json:"headOffset" mapstructure:"headOffset"`
	Board        string        `json:"board" mapstructure:"board"`
	Refresh      time.Duration `json:"refresh" mapstructure:"refresh"`
}

// BannerConfig holds the animated banner shown above the leaderboard
type BannerConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Frames  []string      `json:"frames" mapstructure:"frames"`
	Period  time.Duration `json:"period" mapstructure:"period"`
	Offset  float64       `json:"offset" mapstructure:"offset"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// ScoresConfig selects the leaderboard score store
type ScoresConfig struct {
	Type string // "sqlite" or "postgres"
	Path string // sqlite file, empty for in-memory
	DB   DBConfig
}

// MonitorConfig holds status monitor settings
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// InfluxConfig holds InfluxDB settings for status points
type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GraylogConfig holds GELF sink settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// Load reads configuration from the JSON file in configDir and sets default values.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigFile(filepath.Join(configDir, FileName))
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults sets default values without reading a file.
func LoadDefaults() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./hologramlogs")

	viper.SetDefault("scheduler.queueSize", 1024)
	viper.SetDefault("scheduler.blocking", true)

	viper.SetDefault("leaderboard.title", "Leaderboard")
	viper.SetDefault("leaderboard.template", "{rank}. {name}")
	viper.SetDefault("leaderboard.visibleRanks", 10)
	viper.SetDefault("leaderboard.placeholder", "---")
	viper.SetDefault("leaderboard.footer", "")
	viper.SetDefault("leaderboard.headMode", "player")
	viper.SetDefault("leaderboard.headTexture", "")
	viper.SetDefault("leaderboard.headOffset", 0.0)
	viper.SetDefault("leaderboard.board", "default")
	viper.SetDefault("leaderboard.refresh", "1m")

	viper.SetDefault("origin.world", "world")
	viper.SetDefault("origin.x", 0.0)
	viper.SetDefault("origin.y", 64.0)
	viper.SetDefault("origin.z", 0.0)

	viper.SetDefault("banner.enabled", true)
	viper.SetDefault("banner.frames", []string{"Top Players", "Updated every minute"})
	viper.SetDefault("banner.period", "2s")
	viper.SetDefault("banner.offset", 3.0)

	viper.SetDefault("scores.type", "sqlite")
	viper.SetDefault("scores.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "holograms")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "30s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "holograms")
	viper.SetDefault("influx.bucket", "hologram_status")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "hologramd")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
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

// GetSchedulerConfig returns the primary task queue settings.
func GetSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		QueueSize: viper.GetInt("scheduler.queueSize"),
		Blocking:  viper.GetBool("scheduler.blocking"),
	}
}

// GetLeaderboardConfig returns the default leaderboard settings.
func GetLeaderboardConfig() LeaderboardConfig {
	return LeaderboardConfig{
		Title:        viper.GetString("leaderboard.title"),
		Template:     viper.GetString("leaderboard.template"),
		VisibleRanks: viper.GetInt("leaderboard.visibleRanks"),
		Placeholder:  viper.GetString("leaderboard.placeholder"),
		Footer:       viper.GetString("leaderboard.footer"),
		HeadMode:     viper.GetString("leaderboard.headMode"),
		HeadTexture:  viper.GetString("leaderboard.headTexture"),
		HeadOffset:   viper.GetFloat64("leaderboard.headOffset"),
		Board:        viper.GetString("leaderboard.board"),
		Refresh:      viper.GetDuration("leaderboard.refresh"),
	}
}

// GetOrigin returns where the daemon places its leaderboard.
func GetOrigin() core.Location {
	return core.Location{
		World: viper.GetString("origin.world"),
		X:     viper.GetFloat64("origin.x"),
		Y:     viper.GetFloat64("origin.y"),
		Z:     viper.GetFloat64("origin.z"),
	}
}

// GetBannerConfig returns the animated banner settings.
func GetBannerConfig() BannerConfig {
	return BannerConfig{
		Enabled: viper.GetBool("banner.enabled"),
		Frames:  viper.GetStringSlice("banner.frames"),
		Period:  viper.GetDuration("banner.period"),
		Offset:  viper.GetFloat64("banner.offset"),
	}
}

// GetScoresConfig returns the score store settings.
func GetScoresConfig() ScoresConfig {
	return ScoresConfig{
		Type: viper.GetString("scores.type"),
		Path: viper.GetString("scores.path"),
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL:     viper.GetString("influx.url"),
		Token:   viper.GetString("influx.token"),
		Org:     viper.GetString("influx.org"),
		Bucket:  viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
