package core

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

const (
	EnvHome     = "HOME"
	EnvPWD      = "PWD"
	EnvUser     = "USER"
	EnvHostname = "HOSTNAME"
)

// NewEnv creates a new environment backed by a map.
func NewEnv() *Env {
	return &Env{}
}

// NewEnvFromList creates an environment from KEY=VALUE pairs. Later
// duplicates win.
func NewEnvFromList(environ []string) *Env {
	out := &Env{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}

	return out
}

// Env holds the variables a session passes to the commands it runs.
type Env struct {
	rw  sync.RWMutex
	env map[string]string
}

// Unsetenv removes key.
func (m *Env) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// Setenv sets key to value.
func (m *Env) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv gets the value of key and whether it was set.
func (m *Env) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv gets the value of key, empty if unset.
func (m *Env) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// ExpandEnv replaces $var and ${var} in s.
func (m *Env) ExpandEnv(s string) string {
	return os.Expand(s, m.Getenv)
}

// Environ gets the environment as sorted KEY=VALUE pairs.
func (m *Env) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
