// Config loading for the biblioteca CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyDBPath = "db_path"

	// Environment prefix: BIBLIOTECA_DB_PATH overrides the config file.
	envPrefix = "biblioteca"

	// Default database file, next to the working directory.
	defaultDBPath = "library.db"
)

// dbFlag is set by the persistent --db flag and wins over everything else.
var dbFlag string

// resolveDBPath returns the database path from the flag, the environment, or
// the config file, in that order. A missing config file is not an error.
func resolveDBPath() (string, error) {
	if dbFlag != "" {
		return dbFlag, nil
	}

	v := viper.New()
	v.SetDefault(cfgKeyDBPath, defaultDBPath)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "biblioteca"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return "", fmt.Errorf("read config: %w", err)
		}
	}

	return v.GetString(cfgKeyDBPath), nil
}
