package config

import (
	"errors"
	"fmt"
	"time"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type DB struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Auth is the configuration surface consumed by the auth core. Key material
// is taken as PEM text (env-friendly, literal \n accepted) or a file path;
// when neither is set the process generates a fresh keypair at startup.
type Auth struct {
	Issuer         string        `mapstructure:"issuer"`
	AccessTTL      time.Duration `mapstructure:"access_ttl"`
	RefreshTTL     time.Duration `mapstructure:"refresh_ttl"`
	SigningKid     string        `mapstructure:"signing_kid"`
	PrivateKeyPEM  string        `mapstructure:"private_key_pem"`
	PrivateKeyFile string        `mapstructure:"private_key_file"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
}

type RateLimit struct {
	Burst     int `mapstructure:"burst"`
	PerSecond int `mapstructure:"per_second"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	DB        DB        `mapstructure:"db"`
	Log       Log       `mapstructure:"log"`
	Auth      Auth      `mapstructure:"auth"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
}

// Validate rejects configurations that would violate the token lifetime
// ordering or leave the token service without an issuer.
func (c *Config) Validate() error {
	if c.Auth.Issuer == "" {
		return errors.New("config: auth.issuer is required")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.Auth.AccessTTL >= c.Auth.RefreshTTL {
		return fmt.Errorf("config: access ttl %s must be shorter than refresh ttl %s",
			c.Auth.AccessTTL, c.Auth.RefreshTTL)
	}
	return nil
}
