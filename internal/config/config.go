// Package config loads the relay configuration from an optional YAML file
// merged with environment variables. The environment is read only here, at
// the process boundary; the orchestrators receive explicit structs and never
// touch ambient state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runrelay/runrelay/internal/target"
)

type GitHub struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url,omitempty"`
}

type Target struct {
	Owner          string `yaml:"owner,omitempty"`
	Repo           string `yaml:"repo,omitempty"`
	Slug           string `yaml:"slug,omitempty"`
	Branch         string `yaml:"branch"`
	WorkflowFile   string `yaml:"workflow_file"`
	AllowOverrides bool   `yaml:"allow_overrides"`
}

type Dispatch struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffStep time.Duration `yaml:"backoff_step"`
	Lookback    time.Duration `yaml:"lookback"`
}

type Status struct {
	Lookback time.Duration `yaml:"lookback"`
}

type Server struct {
	Listen string `yaml:"listen"`
}

type Matcher struct {
	// Expr is an optional CEL expression over {token, title, commit_message}.
	// Empty selects the default substring matcher.
	Expr string `yaml:"expr,omitempty"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	// Environment is the deployment environment name; "local" opens the
	// repository override gate regardless of Target.AllowOverrides.
	Environment string `yaml:"environment"`

	GitHub   GitHub   `yaml:"github"`
	Target   Target   `yaml:"target"`
	Dispatch Dispatch `yaml:"dispatch"`
	Status   Status   `yaml:"status"`
	Server   Server   `yaml:"server"`
	Matcher  Matcher  `yaml:"matcher"`
	Log      Log      `yaml:"log"`
}

// OverridesAllowed reports whether caller-supplied repository target values
// may replace the configured defaults.
func (c *Config) OverridesAllowed() bool {
	return c.Target.AllowOverrides || c.Environment == "local"
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variables, highest last. A missing GitHub token is
// deliberately not a load error; it is reported per request so status codes
// stay accurate.
func Load(path string) (*Config, error) {
	c := &Config{
		Dispatch: Dispatch{
			MaxAttempts: 5,
			BackoffStep: 5 * time.Second,
			Lookback:    10 * time.Minute,
		},
		Status: Status{Lookback: 10 * time.Minute},
		Server: Server{Listen: ":8080"},
		Log:    Log{Level: "info"},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("could not unmarshal config: %w", err)
		}
	}

	applyEnv(c)

	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnv(c *Config) {
	setString(&c.Environment, "RUNRELAY_ENV")
	setString(&c.GitHub.Token, "RUNRELAY_GITHUB_TOKEN", "GITHUB_TOKEN")
	setString(&c.GitHub.APIURL, "GITHUB_API_URL")
	setString(&c.Target.Owner, "GITHUB_OWNER")
	setString(&c.Target.Repo, "GITHUB_REPO")
	setString(&c.Target.Slug, "GITHUB_REPO_SLUG")
	setString(&c.Target.Branch, "GITHUB_BRANCH")
	setString(&c.Target.WorkflowFile, "GITHUB_WORKFLOW_FILE")
	setString(&c.Server.Listen, "RUNRELAY_LISTEN")
	setString(&c.Matcher.Expr, "RUNRELAY_MATCHER_EXPR")
	setString(&c.Log.Level, "RUNRELAY_LOG_LEVEL")

	if v := os.Getenv("RUNRELAY_ALLOW_OVERRIDES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Target.AllowOverrides = b
		}
	}
	setDuration(&c.Dispatch.BackoffStep, "RUNRELAY_DISPATCH_BACKOFF_STEP")
	setDuration(&c.Dispatch.Lookback, "RUNRELAY_DISPATCH_LOOKBACK")
	setDuration(&c.Status.Lookback, "RUNRELAY_STATUS_LOOKBACK")
	if v := os.Getenv("RUNRELAY_DISPATCH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Dispatch.MaxAttempts = n
		}
	}
}

func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*dst = v
			return
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func validate(c *Config) error {
	if c.Dispatch.MaxAttempts <= 0 {
		return fmt.Errorf("dispatch.max_attempts must be positive, got %d", c.Dispatch.MaxAttempts)
	}
	if c.Dispatch.BackoffStep <= 0 {
		return fmt.Errorf("dispatch.backoff_step must be positive, got %v", c.Dispatch.BackoffStep)
	}
	if c.Dispatch.Lookback <= 0 {
		return fmt.Errorf("dispatch.lookback must be positive, got %v", c.Dispatch.Lookback)
	}
	if c.Status.Lookback <= 0 {
		return fmt.Errorf("status.lookback must be positive, got %v", c.Status.Lookback)
	}
	if c.Target.Slug != "" {
		if _, _, ok := target.SplitSlug(c.Target.Slug); !ok {
			return fmt.Errorf("target.slug must have the form owner/repo, got %q", c.Target.Slug)
		}
	}
	return nil
}
