package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type SMTPConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password   string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	FromEmail  string `mapstructure:"from_email"`
	FromName   string `mapstructure:"from_name"`
	AdminEmail string `mapstructure:"admin_email"`
}

// ReminderConfig is the explicit contract between the polling schedules and
// the dedup/window parameters. Validate rejects combinations under which the
// engine can skip or double-send: the tolerance must cover at least half a
// poll interval, and the suppression window must outlast the poll interval
// so a due event detected on consecutive ticks is not re-delivered.
type ReminderConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	Tolerance         time.Duration `mapstructure:"tolerance"`
	SuppressionWindow time.Duration `mapstructure:"suppression_window"`
	Lookahead         time.Duration `mapstructure:"lookahead"`
	PageSize          int           `mapstructure:"page_size"`
	SendTimeout       time.Duration `mapstructure:"send_timeout"`
	PageDelay         time.Duration `mapstructure:"page_delay"`
	OverdueAfter      time.Duration `mapstructure:"overdue_after"`
	CleanupRetention  time.Duration `mapstructure:"cleanup_retention"`
	SummaryHour       int           `mapstructure:"summary_hour"`
	CleanupHour       int           `mapstructure:"cleanup_hour"`
}

func (c *ReminderConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.Tolerance < c.PollInterval/2 {
		return fmt.Errorf("tolerance %s must be at least half the poll interval %s", c.Tolerance, c.PollInterval)
	}
	if c.SuppressionWindow <= c.PollInterval {
		return fmt.Errorf("suppression_window %s must exceed the poll interval %s", c.SuppressionWindow, c.PollInterval)
	}
	if c.Lookahead <= 0 {
		return fmt.Errorf("lookahead must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive")
	}
	if c.SummaryHour < 0 || c.SummaryHour > 23 {
		return fmt.Errorf("summary_hour must be between 0 and 23")
	}
	if c.CleanupHour < 0 || c.CleanupHour > 23 {
		return fmt.Errorf("cleanup_hour must be between 0 and 23")
	}
	return nil
}

// MaxLeadMinutes is the largest reminder lead time an entity may configure.
// Bounding lead times to the lookahead at validation time keeps the
// candidate query from silently missing entities whose trigger instant
// falls outside the window it scans.
func (c *ReminderConfig) MaxLeadMinutes() int {
	return int(c.Lookahead / time.Minute)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets come from the environment in deployed setups.
	for _, section := range []interface{}{&config.Database, &config.JWT, &config.SMTP} {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to process env overrides: %w", err)
		}
	}

	if err := config.Reminder.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reminder config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "taskdash")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "30m")

	viper.SetDefault("jwt.expiry_hours", 24)

	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 465)
	viper.SetDefault("smtp.from_name", "Task Dashboard")

	viper.SetDefault("reminder.enabled", true)
	viper.SetDefault("reminder.poll_interval", "1m")
	viper.SetDefault("reminder.tolerance", "30s")
	viper.SetDefault("reminder.suppression_window", "1h")
	viper.SetDefault("reminder.lookahead", "30m")
	viper.SetDefault("reminder.page_size", 100)
	viper.SetDefault("reminder.send_timeout", "30s")
	viper.SetDefault("reminder.page_delay", "1s")
	viper.SetDefault("reminder.overdue_after", "24h")
	viper.SetDefault("reminder.cleanup_retention", "720h")
	viper.SetDefault("reminder.summary_hour", 9)
	viper.SetDefault("reminder.cleanup_hour", 2)
}
