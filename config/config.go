package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name string `mapstructure:"NAME"`
		Port string `mapstructure:"PORT"`
	}

	DATABASE struct {
		Sqlite struct {
			Path string `mapstructure:"PATH"`
		}
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
		}
	}
}

var Conf *AppConfig

func LoadConfig() error {
	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("NEECHAT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	Conf = &config
	log.Info().Msg("configuration loaded...")
	return nil
}
