package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string        `yaml:"log-level"      env:"LOG_LEVEL"      env-default:"info"`
	HTTPPort     string        `yaml:"http-port"      env:"HTTP_PORT"      env-default:"9090"`
	SocketPort   string        `yaml:"socket-port"    env:"SOCKET_PORT"    env-default:"9091"`
	Redis        Redis         `yaml:"redis"`
	JWTSecretKey string        `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY" env-required:"true"`
	JWTTokenTTL  time.Duration `yaml:"jwt-token-ttl"  env:"JWT_TOKEN_TTL"  env-default:"24h"`
	Rooms        Rooms         `yaml:"rooms"`
	Checkers     Checkers      `yaml:"checkers"`
	Chat         Chat          `yaml:"chat"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Rooms struct {
	IdleTimeout   time.Duration `yaml:"idle-timeout"   env:"ROOMS_IDLE_TIMEOUT"   env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"ROOMS_SWEEP_INTERVAL" env-default:"10m"`
	SendBuffer    int           `yaml:"send-buffer"    env:"ROOMS_SEND_BUFFER"    env-default:"64"`
}

type Checkers struct {
	MoveLimit int `yaml:"move-limit" env:"CHECKERS_MOVE_LIMIT" env-default:"100"`
}

type Chat struct {
	HistoryLimit int `yaml:"history-limit" env:"CHAT_HISTORY_LIMIT" env-default:"50"`
	MaxLength    int `yaml:"max-length"    env:"CHAT_MAX_LENGTH"    env-default:"500"`
}

// MustLoad - load all configurations from the config.yml file, or from the
// environment when the file does not exist.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		err = cleanenv.ReadConfig(path, config)
	case errors.Is(err, os.ErrNotExist):
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, err
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	switch {
	case that.Rooms.SweepInterval <= 0:
		return errors.New("rooms.sweep-interval must be positive")
	case that.Rooms.IdleTimeout <= 0:
		return errors.New("rooms.idle-timeout must be positive")
	case that.Rooms.SendBuffer <= 0:
		return errors.New("rooms.send-buffer must be positive")
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
