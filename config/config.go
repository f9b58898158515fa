// Package config handles pre-database configuration, such as the location of the database.
// This is used by both deucesd and deucesadmin.
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"maze.io/x/duration"
)

const defaultLockTimeout = 10 * time.Second

// Viper-based config loader
func Init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetConfigType("yaml")
	viper.SetConfigName(".deuces")
	viper.AddConfigPath(home)
	viper.AutomaticEnv()
	viper.BindEnv("db_url", "DEUCES_DB_URL")
	viper.BindEnv("listen_address", "DEUCES_LISTEN_ADDRESS")
	viper.BindEnv("sql_connector", "DEUCES_SQL_CONNECTOR")
	viper.BindEnv("lock_timeout", "DEUCES_LOCK_TIMEOUT")
	viper.BindEnv("paytable_dir", "DEUCES_PAYTABLE_DIR")
	viper.BindEnv("tie_break", "DEUCES_TIE_BREAK")
	viper.BindEnv("cache_size", "DEUCES_CACHE_SIZE")
	viper.BindEnv("allowed_origins", "DEUCES_ALLOWED_ORIGINS")
	setDefaults()
	err = viper.ReadInConfig() // ignore error if config file missing
	if err != nil {
		log.Printf("viper can't read config file: %v", err)
	}
	log.Printf("Using SQL connector: %s", SQLConnector())
	log.Printf("Using listen address: %s", ListenAddress())
}

func setDefaults() {
	viper.SetDefault("db_url", "")
	viper.SetDefault("listen_address", ":8080")
	viper.SetDefault("sql_connector", "sqlite")
	viper.SetDefault("lock_timeout", "10s")
	viper.SetDefault("paytable_dir", "")
	viper.SetDefault("tie_break", "last-listed")
	viper.SetDefault("cache_size", 64)
	viper.SetDefault("allowed_origins", []string{})
}

func DBURL() string {
	return viper.GetString("db_url")
}

func ListenAddress() string {
	return viper.GetString("listen_address")
}

// SQLConnector is one of "pgx", "connector" (Cloud SQL), "sqlite", or
// "memory" for a throwaway in-memory SQLite database.
func SQLConnector() string {
	return viper.GetString("sql_connector")
}

// LockTimeout bounds how long one request may hold a game.  It accepts
// anything maze.io/x/duration does, so "1m30s" and "1d" both work.
func LockTimeout() time.Duration {
	s := viper.GetString("lock_timeout")
	d, err := duration.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Printf("warning: bad lock_timeout %q, using %v", s, defaultLockTimeout)
		return defaultLockTimeout
	}
	return time.Duration(d)
}

func PaytableDir() string {
	return viper.GetString("paytable_dir")
}

// TieBreak is parsed by settle.ParseTieBreak.
func TieBreak() string {
	return viper.GetString("tie_break")
}

func CacheSize() int {
	if n := viper.GetInt("cache_size"); n > 0 {
		return n
	}
	return 1
}

// AllowedOrigins lists the origins CORS lets in, e.g. "https://table.example".
// With none, any origin may read but not send credentials.
func AllowedOrigins() []string {
	return viper.GetStringSlice("allowed_origins")
}
