package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel         string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort         string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort       string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7777"`
	ReconnectTimeout time.Duration `yaml:"reconnect-timeout" env:"RECONNECT_TIMEOUT" env-default:"30s"`
	Redis            Redis         `yaml:"redis"`
	Bot              Bot           `yaml:"bot"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Bot - the opponent of bot games.
type Bot struct {
	Delay time.Duration `yaml:"delay" env:"BOT_DELAY" env-default:"1500ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
