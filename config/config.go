package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port           int
		AllowedOrigins []string
	}
	Database struct {
		// Driver is one of sqlite, postgres, mongo, file or memory.
		Driver string
		URL    string
		Name   string
	}
	Session struct {
		// Backend is one of memory, redis or mongo.
		Backend    string
		TTL        string
		CookieName string
		Secure     bool
	}
	Redis struct {
		Addr     string
		Password string
	}
	Admin struct {
		Username     string
		Password     string
		PasswordHash string
	}
	Log struct {
		Level  string
		Pretty bool
	}
}

var (
	drivers         = []string{"sqlite", "postgres", "mongo", "file", "memory"}
	sessionBackends = []string{"memory", "redis", "mongo"}
)

// LoadConfig reads config.yaml from . or ./config when present, then applies
// CITYGUIDE_* environment overrides. The admin credential comes from
// ADMIN_USERNAME and ADMIN_PASSWORD (or ADMIN_PASSWORD_HASH).
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("cityguide")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Default values
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.allowedorigins", []string{"*"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:cityguide.db?_foreign_keys=on")
	v.SetDefault("database.name", "cityguide")
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.cookiename", "cityguide_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// plain variable names shared with the hosting environment
	bindings := map[string][]string{
		"server.port":        {"CITYGUIDE_SERVER_PORT", "PORT"},
		"admin.username":     {"ADMIN_USERNAME"},
		"admin.password":     {"ADMIN_PASSWORD"},
		"admin.passwordhash": {"ADMIN_PASSWORD_HASH"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Admin.Username) == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME is required"))
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required"))
	}
	if !contains(drivers, c.Database.Driver) {
		errs = append(errs, fmt.Errorf("database.driver %q must be one of %v", c.Database.Driver, drivers))
	}
	if !contains(sessionBackends, c.Session.Backend) {
		errs = append(errs, fmt.Errorf("session.backend %q must be one of %v", c.Session.Backend, sessionBackends))
	}
	if c.Session.Backend == "mongo" && c.Database.Driver != "mongo" {
		errs = append(errs, errors.New("session.backend mongo requires database.driver mongo"))
	}
	if ttl, err := time.ParseDuration(c.Session.TTL); err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("session.ttl %q must be a positive duration", c.Session.TTL))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

// GetSessionTTL returns the session lifetime; Validate guarantees it parses.
func (c *Config) GetSessionTTL() time.Duration {
	duration, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return duration
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
