package maincmd

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// configFileName is searched for in the current directory, then $HOME, if
// --config doesn't name a file explicitly.
const configFileName = ".objorc.yaml"

// Config holds settings that tune how a run behaves but don't belong on the
// command line every time: the VM's recursion/step limits and whether the
// CLI should trace calls and breakpoints to stderr. OBJO_-prefixed
// environment variables are read first and a config file overrides them;
// there are no command-line flags for these settings.
type Config struct {
	MaxFrames  int  `yaml:"max_frames" env:"MAX_FRAMES"`
	MaxSteps   int  `yaml:"max_steps" env:"MAX_STEPS"`
	TraceCalls bool `yaml:"trace_calls" env:"TRACE_CALLS"`
}

// LoadConfig builds a Config from OBJO_-prefixed environment variables, then
// overlays the contents of path (if non-empty) or, failing that, whichever
// of cwd/.objorc.yaml or $HOME/.objorc.yaml exists first.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "OBJO_"}); err != nil {
		return nil, err
	}

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, configFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
