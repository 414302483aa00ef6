package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/routecue/waypointd/internal/database"
	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "waypointd.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpPath     string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type          string                  `json:"type" mapstructure:"type"`
	FlushInterval time.Duration           `json:"flushInterval" mapstructure:"flushInterval"`
	MaxPending    int                     `json:"maxPending" mapstructure:"maxPending"`
	Memory        MemoryConfig            `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig            `json:"sqlite" mapstructure:"sqlite"`
	Postgres      database.PostgresConfig `json:"-" mapstructure:"-"`
}

// InfluxConfig holds the InfluxDB connection settings
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logsKeep", 10)

	viper.SetDefault("navigation.showWaypoints", true)
	viper.SetDefault("navigation.announceWaypoints", true)
	viper.SetDefault("navigation.showFavorites", true)
	viper.SetDefault("navigation.announceFavorites", true)
	viper.SetDefault("navigation.showPoi", false)
	viper.SetDefault("navigation.announcePoi", false)
	viper.SetDefault("navigation.showTrafficWarnings", true)
	viper.SetDefault("navigation.announceTrafficWarnings", true)
	viper.SetDefault("navigation.showCameras", false)
	viper.SetDefault("navigation.announceCameras", false)
	viper.SetDefault("navigation.searchDeviationRadius", waypoint.DefaultSearchDeviationRadius)
	viper.SetDefault("navigation.poiSearchDeviationRadius", waypoint.DefaultPOISearchDeviationRadius)
	viper.SetDefault("navigation.speedLimitExceed", 5)
	viper.SetDefault("navigation.metric", true)

	viper.SetDefault("voice.defaultSpeed", 12)
	viper.SetDefault("voice.output", "")

	viper.SetDefault("poi.file", "")
	viper.SetDefault("poi.cacheSize", 64)
	viper.SetDefault("favorites.file", "")
	viper.SetDefault("waypoints.file", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.maxPending", 100000)
	viper.SetDefault("storage.memory.outputDir", "./sessions")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./waypointd.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "waypointd")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "waypointd")
	viper.SetDefault("influx.backupPath", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
	viper.SetDefault("graylog.level", "info")

	viper.SetDefault("monitor.interval", "30s")
	viper.SetDefault("monitor.statusFile", "")

	viper.SetDefault("dispatcher.bufferSize", 1000)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Watch calls fn with fresh navigation settings whenever the config file changes.
func Watch(fn func(waypoint.Settings)) {
	viper.OnConfigChange(func(fsnotify.Event) {
		fn(GetNavigationSettings())
	})
	viper.WatchConfig()
}

// GetNavigationSettings builds engine settings from the navigation keys.
// Radii snap to the nearest allowed value.
func GetNavigationSettings() waypoint.Settings {
	units := core.Metric
	if !viper.GetBool("navigation.metric") {
		units = core.Imperial
	}
	return waypoint.Settings{
		ShowWaypoints:            viper.GetBool("navigation.showWaypoints"),
		AnnounceWaypoints:        viper.GetBool("navigation.announceWaypoints"),
		ShowFavorites:            viper.GetBool("navigation.showFavorites"),
		AnnounceFavorites:        viper.GetBool("navigation.announceFavorites"),
		ShowPOI:                  viper.GetBool("navigation.showPoi"),
		AnnouncePOI:              viper.GetBool("navigation.announcePoi"),
		ShowTrafficWarnings:      viper.GetBool("navigation.showTrafficWarnings"),
		AnnounceTrafficWarnings:  viper.GetBool("navigation.announceTrafficWarnings"),
		ShowCameras:              viper.GetBool("navigation.showCameras"),
		AnnounceCameras:          viper.GetBool("navigation.announceCameras"),
		SearchDeviationRadius:    waypoint.SnapRadius(viper.GetInt("navigation.searchDeviationRadius")),
		POISearchDeviationRadius: waypoint.SnapRadius(viper.GetInt("navigation.poiSearchDeviationRadius")),
		SpeedLimitExceed:         viper.GetFloat64("navigation.speedLimitExceed"),
		Units:                    units,
	}
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		MaxPending:    viper.GetInt("storage.maxPending"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpPath:     viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: GetPostgresConfig(),
	}
}

// GetPostgresConfig returns the Postgres connection settings.
func GetPostgresConfig() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
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

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
