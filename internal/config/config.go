package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Server      string `mapstructure:"server"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	AppPassword string `mapstructure:"app_password"`
}

// Enabled reports whether reminders can be sent at all.
func (s SMTPConfig) Enabled() bool {
	return s.Server != "" && s.User != "" && s.AppPassword != ""
}

type SessionConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type TreasurerConfig struct {
	Password string `mapstructure:"password"`
}

type ReminderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Port        string          `mapstructure:"port"`
	Timezone    string          `mapstructure:"timezone"`
	StoreDriver string          `mapstructure:"store_driver"`
	Database    DatabaseConfig  `mapstructure:"database"`
	DB          DBConfig        `mapstructure:"db"`
	SMTP        SMTPConfig      `mapstructure:"smtp"`
	Session     SessionConfig   `mapstructure:"session"`
	Treasurer   TreasurerConfig `mapstructure:"treasurer"`
	Reminder    ReminderConfig  `mapstructure:"reminder"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("timezone", "Africa/Nairobi")
	v.SetDefault("store_driver", "postgres")
	v.SetDefault("database.url", "")

	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "postgres")
	v.SetDefault("db.sslmode", "require")

	v.SetDefault("smtp.server", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.app_password", "")

	v.SetDefault("session.timeout", 30*time.Minute)
	v.SetDefault("treasurer.password", "")
	v.SetDefault("reminder.interval", time.Hour)
}

// Load reads configuration from path, or from config.yaml in the working
// directory when path is empty. The file is optional in the latter case.
// Environment variables override the file: db.host is read from DB_HOST,
// smtp.app_password from SMTP_APP_PASSWORD and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
