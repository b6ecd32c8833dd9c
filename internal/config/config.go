// Package config loads novadb's YAML configuration via viper, mirroring the
// teacher's internal.NovaSqlConfig shape.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration: where table files and the index
// metadata live, how many buffer pool frames each table gets, and debug
// logging.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	BufferPool struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"buffer_pool"`

	Server struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"server"`
}

func defaults() *Config {
	cfg := &Config{DataDir: "./data"}
	cfg.BufferPool.Capacity = 64
	return cfg
}

// Load reads path as YAML into a Config, applying defaults for anything the
// file omits. A missing file is not an error: the defaults alone are usable
// for a first run.
func Load(path string) (*Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("buffer_pool.capacity", cfg.BufferPool.Capacity)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
