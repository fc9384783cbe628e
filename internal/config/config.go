package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"

	"github.com/valksor/go-selfup/internal/httpclient"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/verify"
	"github.com/valksor/go-selfup/internal/version"
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("configuration file not found")
)

// Format names a supported configuration syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Config holds everything one update check needs
type Config struct {
	Prefix  string        `toml:"prefix" yaml:"prefix"`
	Version string        `toml:"version" yaml:"version"`
	Repo    RepoConfig    `toml:"repo" yaml:"repo"`
	Source  SourceConfig  `toml:"source" yaml:"source"`
	Asset   AssetConfig   `toml:"asset" yaml:"asset"`
	Verify  VerifyConfig  `toml:"verify" yaml:"verify"`
	Network NetworkConfig `toml:"network" yaml:"network"`
	Update  UpdateConfig  `toml:"update" yaml:"update"`

	path        string
	constraint  version.Constraint
	trustedKeys []ssh.PublicKey
}

// RepoConfig identifies the repository releases are published in
type RepoConfig struct {
	Owner string `toml:"owner" yaml:"owner"`
	Name  string `toml:"name" yaml:"name"`
}

// SourceConfig selects the release host
type SourceConfig struct {
	Kind    string `toml:"kind" yaml:"kind"`
	BaseURL string `toml:"base_url" yaml:"base_url"`
	Token   string `toml:"token" yaml:"token"`
}

// AssetConfig controls which asset is installed
type AssetConfig struct {
	Binary   string `toml:"binary" yaml:"binary"`
	Template string `toml:"template" yaml:"template"`
}

// VerifyConfig controls digest and signature checks
type VerifyConfig struct {
	Checksums       []string `toml:"checksums" yaml:"checksums"`
	AllowUnverified bool     `toml:"allow_unverified" yaml:"allow_unverified"`
	TrustedKeys     []string `toml:"trusted_keys" yaml:"trusted_keys"`
}

// NetworkConfig holds timeouts and retry settings for the release host
type NetworkConfig struct {
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
	Attempts int      `toml:"attempts" yaml:"attempts"`
	Backoff  Duration `toml:"backoff" yaml:"backoff"`
	Rate     float64  `toml:"rate" yaml:"rate"`
}

// UpdateConfig holds settings for the update run itself
type UpdateConfig struct {
	CheckInterval Duration `toml:"check_interval" yaml:"check_interval"`
	LockTimeout   Duration `toml:"lock_timeout" yaml:"lock_timeout"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns a config with every optional setting filled in.
func Default() *Config {
	return &Config{
		Version: "latest",
		Source:  SourceConfig{Kind: source.KindGitHub},
		Network: NetworkConfig{
			Timeout:  Duration(httpclient.DefaultTimeout),
			Attempts: 1,
			Backoff:  Duration(httpclient.DefaultBackoff),
			Rate:     10,
		},
		Update: UpdateConfig{
			CheckInterval: Duration(24 * time.Hour),
			LockTimeout:   Duration(10 * time.Second),
		},
	}
}

// Load reads, defaults and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path

	return cfg, nil
}

// FormatOf picks the syntax from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
}

// Parse decodes data in the given format. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF and leaves the defaults.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills derived defaults and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	c.Repo.Owner = strings.TrimSpace(c.Repo.Owner)
	c.Repo.Name = strings.TrimSpace(c.Repo.Name)
	if c.Repo.Owner == "" {
		problems = append(problems, "repo.owner is required")
	}
	if c.Repo.Name == "" {
		problems = append(problems, "repo.name is required")
	}
	if strings.Contains(c.Repo.Name, "/") {
		problems = append(problems, "repo.name must not contain '/'")
	}

	constraint, err := version.ParseConstraint(c.Version)
	if err != nil {
		problems = append(problems, err.Error())
	}

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case "":
		c.Source.Kind = source.KindGitHub
	case source.KindGitHub, source.KindGitLab:
	default:
		problems = append(problems, fmt.Sprintf("source.kind %q must be %q or %q", c.Source.Kind, source.KindGitHub, source.KindGitLab))
	}
	if c.Source.BaseURL != "" {
		if u, err := url.Parse(c.Source.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("source.base_url %q must be an http(s) URL", c.Source.BaseURL))
		}
	}

	if c.Asset.Binary == "" {
		c.Asset.Binary = c.Repo.Name
	}
	if c.Verify.Checksums == nil {
		c.Verify.Checksums = append([]string(nil), verify.DefaultManifests...)
	}

	keys, err := verify.ParseTrustedKeys(c.Verify.TrustedKeys)
	if err != nil {
		problems = append(problems, "verify.trusted_keys: "+err.Error())
	}

	if c.Network.Attempts < 1 {
		problems = append(problems, "network.attempts must be at least 1")
	}
	if c.Network.Timeout < 0 || c.Network.Backoff < 0 {
		problems = append(problems, "network durations must not be negative")
	}
	if c.Network.Rate < 0 {
		problems = append(problems, "network.rate must not be negative")
	}
	if c.Update.CheckInterval < 0 || c.Update.LockTimeout < 0 {
		problems = append(problems, "update durations must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	c.constraint = constraint
	c.trustedKeys = keys

	return nil
}

// OverrideVersion replaces the configured constraint, as the --version flag does.
func (c *Config) OverrideVersion(s string) error {
	constraint, err := version.ParseConstraint(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Version = s
	c.constraint = constraint
	return nil
}

// Path is the file the config was loaded from, empty for in-memory configs.
func (c *Config) Path() string {
	return c.path
}

// Constraint is the version constraint parsed during validation.
func (c *Config) Constraint() version.Constraint {
	return c.constraint
}

func (c *Config) TrustedKeys() []ssh.PublicKey {
	return c.trustedKeys
}

func (c *Config) RepoRef() source.RepoRef {
	return source.RepoRef{Owner: c.Repo.Owner, Name: c.Repo.Name}
}

// RetryPolicy converts the network settings into the policy used for every request.
func (c *Config) RetryPolicy() httpclient.RetryPolicy {
	return httpclient.Attempts(c.Network.Attempts, c.Network.Backoff.Std())
}

// SourceOptions builds the options for source.New. The token is resolved
// from the environment first and falls back to the config file.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		BaseURL: c.Source.BaseURL,
		Token:   source.ResolveToken(c.Source.Kind, c.Source.Token),
		HTTPClient: httpclient.New(httpclient.Options{
			Timeout: c.Network.Timeout.Std(),
			Rate:    c.Network.Rate,
		}),
		Retry:   c.RetryPolicy(),
		Timeout: c.Network.Timeout.Std(),
	}
}

// Encode writes the effective config in the given format. Tokens are masked.
func (c *Config) Encode(format Format) ([]byte, error) {
	out := *c
	if out.Source.Token != "" {
		out.Source.Token = "********"
	}

	switch format {
	case FormatYAML:
		return yaml.Marshal(&out)
	default:
		return toml.Marshal(&out)
	}
}
