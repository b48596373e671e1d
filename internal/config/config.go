package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Subject struct {
		Code        string `yaml:"code"`
		Name        string `yaml:"name"`
		URLTemplate string `yaml:"urlTemplate"`
	} `yaml:"subject"`
	Years []int `yaml:"years"`
	Fetch struct {
		Timeout   string `yaml:"timeout"`
		UserAgent string `yaml:"userAgent"`
	} `yaml:"fetch"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Output struct {
		Path      string `yaml:"path"`
		ChartPath string `yaml:"chartPath"`
	} `yaml:"output"`
	// Topics overrides the built-in topic keyword table for the subject.
	Topics map[string][]string `yaml:"topics"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// Load reads YAML config from path and validates it. Validation failures are
// fatal setup errors: the run must not start without a usable subject.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	sort.Ints(cfg.Years)
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Subject.Code) == "" {
		return fmt.Errorf("config: subject.code is required")
	}
	if strings.TrimSpace(c.Subject.URLTemplate) == "" {
		return fmt.Errorf("config: subject.urlTemplate is required")
	}
	if len(c.Years) == 0 {
		return fmt.Errorf("config: years must list at least one year")
	}
	return nil
}

// SubjectName falls back to the subject code when no display name is set.
func (c Config) SubjectName() string {
	if c.Subject.Name != "" {
		return c.Subject.Name
	}
	return c.Subject.Code
}

// PaperURL expands the {year} placeholder in the source URL template.
func (c Config) PaperURL(year int) string {
	return strings.ReplaceAll(c.Subject.URLTemplate, "{year}", strconv.Itoa(year))
}

// OutputPath is where the report JSON is written each run.
func (c Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	return filepath.Join("data", "analytics", c.Subject.Code+"_analytics.json")
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
