package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Layouts LayoutsConfig `mapstructure:"layouts"`
	Retorno RetornoConfig `mapstructure:"retorno"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LayoutsConfig aponta um diretório com layouts .yml que se sobrepõem aos
// embutidos, e a versão de layout usada quando a requisição não informa.
type LayoutsConfig struct {
	Dir            string `mapstructure:"dir"`
	DefaultVersion string `mapstructure:"defaultVersion"`
}

type RetornoConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoadConfig lê appsettings.yaml do diretório informado. O arquivo é
// opcional; variáveis CNAB_* (ex.: CNAB_SERVER_PORT) têm precedência.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8083")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("layouts.dir", "")
	v.SetDefault("layouts.defaultVersion", "")
	v.SetDefault("retorno.workers", 4)

	v.SetEnvPrefix("CNAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Retorno.Workers <= 0 {
		return nil, errors.New("retorno.workers deve ser maior que zero")
	}
	return &cfg, nil
}
