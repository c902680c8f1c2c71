// internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/arixstoo/Junction/internal/auth"
)

type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Auth auth.Config `mapstructure:"auth"`
	Mock struct {
		// CSVSource is a file path or an http(s) URL to the pond dataset.
		CSVSource    string        `mapstructure:"csv_source"`
		CacheTimeout time.Duration `mapstructure:"cache_timeout"`
	} `mapstructure:"mock"`
	Feed struct {
		Enabled  bool          `mapstructure:"enabled"`
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"feed"`
	NATS struct {
		URL     string `mapstructure:"url"`
		Subject string `mapstructure:"subject"`
	} `mapstructure:"nats"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	Notifications struct {
		Recipient string `mapstructure:"recipient"`
		Language  string `mapstructure:"language"`
	} `mapstructure:"notifications"`
}

var AppConfig Config

func LoadConfig(path string) error {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Error reading config file: %s\n", err)
		// Set defaults if file not found or partially missing
	}
	setDefaults()

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Printf("Unable to decode config into struct: %v", err)
		return err
	}

	log.Printf("Configuration loaded: server port %d, csv source %q",
		AppConfig.Server.Port, AppConfig.Mock.CSVSource)
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("auth.jwt_secret", "change-me")
	viper.SetDefault("auth.jwt_expiration", 60)
	viper.SetDefault("mock.csv_source", "pond_data.csv")
	viper.SetDefault("mock.cache_timeout", 2*time.Minute)
	viper.SetDefault("feed.enabled", true)
	viper.SetDefault("feed.interval", 10*time.Second)
	viper.SetDefault("nats.subject", "pondwatch.alerts")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("notifications.recipient", "+213555123456")
	viper.SetDefault("notifications.language", "fr")
}
