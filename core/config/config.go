package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte

	//go:embed default/startup.qi
	defaultStartupData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "events.log"

	ExecutorProcess = "process"
	ExecutorInterp  = "interp"
)

// Configuration holds the settings of a shell, read from a configuration
// directory.
type Configuration struct {
	configFs afero.Fs
	dir      string

	Prompt             string `json:"prompt" validate:"required"`
	ContinuationPrompt string `json:"continuation_prompt"`
	Color              string `json:"color" validate:"oneof=always auto never"`

	Executor            string   `json:"executor" validate:"oneof=process interp"`
	Shell               string   `json:"shell" validate:"required"`
	ShellArgs           []string `json:"shell_args"`
	InteractiveCommands []string `json:"interactive_commands" validate:"unique"`

	MaxCallDepth  int    `json:"max_call_depth" validate:"gte=0"`
	HistoryFile   string `json:"history_file"`
	StartupScript string `json:"startup_script"`

	LogLevel     string `json:"log_level" validate:"oneof=debug info warn error"`
	RecordEvents bool   `json:"record_events"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewMemMapFs()
	}
	return c.configFs
}

// Dir gets the configuration directory on disk, empty if the configuration
// isn't backed by one.
func (c *Configuration) Dir() string {
	return c.dir
}

// IsInteractive reports whether a command named name should be attached to
// the terminal.
func (c *Configuration) IsInteractive(name string) bool {
	for _, cmd := range c.InteractiveCommands {
		if strings.EqualFold(cmd, name) {
			return true
		}
	}
	return false
}

// OpenAppLog opens the event log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the event log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// OpenStartupScript opens the startup script. It returns an error wrapping
// fs.ErrNotExist if there's none.
func (c *Configuration) OpenStartupScript() (afero.File, error) {
	if c.StartupScript == "" {
		return nil, &fs.PathError{Op: "open", Path: "startup_script", Err: fs.ErrNotExist}
	}
	return c.fs().Open(c.StartupScript)
}

// HistoryPath gets the path of the line editor history file, or an empty
// string if history shouldn't be saved.
func (c *Configuration) HistoryPath() string {
	if c.HistoryFile == "" || c.dir == "" {
		return ""
	}
	if filepath.IsAbs(c.HistoryFile) {
		return c.HistoryFile
	}
	return filepath.Join(c.dir, c.HistoryFile)
}

// Default gets the built-in configuration, not backed by any directory.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
