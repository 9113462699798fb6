package config

import (
	"os"
	"sync"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/errors"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading and hot-reloading
type Loader struct {
	path     string
	mu       sync.RWMutex
	config   *Config
	lastMod  time.Time
	onChange func(*Config)
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the configuration from the file
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.ErrConfigNotFound{Path: l.path}
		}
		return nil, err
	}

	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &errors.ErrFileRead{Path: l.path, Err: err}
	}

	content = substituteEnvVars(content)
	config, err := Parse(content)
	if err != nil {
		return nil, err
	}

	l.config = config
	l.lastMod = info.ModTime()

	return config, nil
}

// Reload forces a reload of the configuration
func (l *Loader) Reload() (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	onChange := l.onChange
	l.mu.RUnlock()

	if onChange != nil {
		onChange(config)
	}

	return config, nil
}

// Get returns the current configuration
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// SetOnChange sets a callback to be called when configuration changes
func (l *Loader) SetOnChange(fn func(*Config)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Parse parses configuration from byte slice
func Parse(data []byte) (*Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &errors.ErrConfigParse{Err: err}
	}

	if err := config.Validate(); err != nil {
		return nil, &errors.ErrConfigValidation{Err: err}
	}

	return &config, nil
}

func substituteEnvVars(content []byte) []byte {
	return []byte(os.ExpandEnv(string(content)))
}
