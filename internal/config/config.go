// Package config loads the adapter directory's settings: which run script
// and input template to use, where to scratch calculations, and the socket
// endpoint and sentinel pattern the compute facade talks to. A missing
// bbm.yaml yields a zero-value config; a dotenv-style environment override
// is layered on top.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk bbm.yaml shape plus the defaults the compute
// facade and CLI fall back on when a field is unset.
type Config struct {
	RunFile  string `yaml:"run_file,omitempty"`
	TplFile  string `yaml:"tpl_file,omitempty"`
	IntFile  string `yaml:"int_file,omitempty"`
	ScrDir   string `yaml:"scr_dir,omitempty"`
	SockPath string `yaml:"sock_path,omitempty"`
	Sentinel string `yaml:"sentinel,omitempty"`
}

const (
	defaultRunFile  = "submit.sh"
	defaultTplFile  = "input.tpl"
	defaultSockPath = "vasp.sock"
	defaultSentinel = "POSITIONS: read"
)

// applyDefaults fills any field still empty after loading with its
// built-in default.
func (c *Config) applyDefaults() {
	if c.RunFile == "" {
		c.RunFile = defaultRunFile
	}
	if c.TplFile == "" {
		c.TplFile = defaultTplFile
	}
	if c.SockPath == "" {
		c.SockPath = defaultSockPath
	}
	if c.Sentinel == "" {
		c.Sentinel = defaultSentinel
	}
}

// Load reads bbm.yaml from dir, then overlays dir/.env (dotenv.go) and then
// real process environment variables, in increasing order of precedence.
// A missing bbm.yaml is not an error: Load returns a zero-value Config
// with defaults applied.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	path := filepath.Join(dir, "bbm.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	env, err := loadDotenv(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}
	overlay(cfg, env)
	overlay(cfg, processEnv())
	cfg.applyDefaults()

	if !filepath.IsAbs(cfg.RunFile) {
		cfg.RunFile = filepath.Join(dir, cfg.RunFile)
	}
	if !filepath.IsAbs(cfg.TplFile) {
		cfg.TplFile = filepath.Join(dir, cfg.TplFile)
	}
	if cfg.IntFile != "" && !filepath.IsAbs(cfg.IntFile) {
		cfg.IntFile = filepath.Join(dir, cfg.IntFile)
	}
	return cfg, nil
}

// overlay applies the four BBM_* keys from env onto cfg, leaving fields env
// doesn't mention untouched.
func overlay(cfg *Config, env map[string]string) {
	if v, ok := env["BBM_RUN_FILE"]; ok {
		cfg.RunFile = v
	}
	if v, ok := env["BBM_TPL_FILE"]; ok {
		cfg.TplFile = v
	}
	if v, ok := env["BBM_INT_FILE"]; ok {
		cfg.IntFile = v
	}
	if v, ok := env["BBM_SCR_DIR"]; ok {
		cfg.ScrDir = v
	}
}

func processEnv() map[string]string {
	out := map[string]string{}
	for _, k := range []string{"BBM_RUN_FILE", "BBM_TPL_FILE", "BBM_INT_FILE", "BBM_SCR_DIR"} {
		if v, ok := os.LookupEnv(k); ok {
			out[k] = v
		}
	}
	return out
}

// Save writes cfg back to dir/bbm.yaml.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "bbm.yaml"), data, 0o644)
}
