package config

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory. A directory without a
// configuration file gets the defaults.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	out, err := LoadFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
	if err != nil {
		return nil, err
	}
	out.dir = dir
	return out, nil
}

// LoadFs loads the configuration from the root of fsys.
func LoadFs(fsys afero.Fs) (*Configuration, error) {
	out := defaultConfig()
	out.configFs = fsys

	configContents, err := afero.ReadFile(fsys, ConfigurationName)
	switch {
	case isNotExist(err):
		return out, nil
	case err != nil:
		return nil, err
	}

	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	return out, nil
}

// Initialize writes the default configuration and startup script to the
// directory, leaving any existing files alone.
func Initialize(path string, logger *log.Logger) (*Configuration, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	out, err := InitializeFs(afero.NewBasePathFs(osFs, dir), logger)
	if err != nil {
		return nil, err
	}
	out.dir = dir
	return out, nil
}

// InitializeFs is Initialize on the root of fsys.
func InitializeFs(fsys afero.Fs, logger *log.Logger) (*Configuration, error) {
	for _, file := range []struct {
		name     string
		contents []byte
	}{
		{ConfigurationName, defaultConfigData},
		{defaultConfig().StartupScript, defaultStartupData},
	} {
		exists, err := afero.Exists(fsys, file.name)
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Info("keeping existing file", "name", file.name)
			continue
		}

		if err := afero.WriteFile(fsys, file.name, file.contents, 0600); err != nil {
			return nil, err
		}
		logger.Info("wrote file", "name", file.name)
	}

	return LoadFs(fsys)
}
