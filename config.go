package posteditor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"

	"github.com/eringen/posteditor/markdown"
	"github.com/eringen/posteditor/publish"
	"github.com/eringen/posteditor/repository"
)

// Config holds all configuration for the editor service.
type Config struct {
	Addr          string `mapstructure:"addr"`           // Listen address (default ":3000")
	SessionSecret string `mapstructure:"session_secret"` // Required: session cookie secret
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true for HTTPS

	GitHub GitHubConfig `mapstructure:"github"`

	PostsDir    string   `mapstructure:"posts_dir"`    // default "_posts"
	ImagesDir   string   `mapstructure:"images_dir"`   // default "assets/img"
	DefaultHero string   `mapstructure:"default_hero"` // hero used when a post names none
	Reviewers   []string `mapstructure:"reviewers"`    // requested on every pull request

	MaxUploadSize int64         `mapstructure:"max_upload_size"` // bytes (default 10MB)
	PublishLimit  int           `mapstructure:"publish_limit"`   // publishes per client per window (default 10)
	PublishWindow time.Duration `mapstructure:"publish_window"`  // default 1h
	SessionTTL    time.Duration `mapstructure:"session_ttl"`     // idle image managers are dropped after this (default 12h)
}

// GitHubConfig identifies the site repository and how to reach it.
type GitHubConfig struct {
	Token             string `mapstructure:"token"`      // Required
	Repository        string `mapstructure:"repository"` // Required: owner/name
	BaseURL           string `mapstructure:"base_url"`   // GitHub Enterprise API root
	BaseBranch        string `mapstructure:"base_branch"`
	PullRequestMarker string `mapstructure:"pull_request_marker"`
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.GitHub.BaseBranch == "" {
		c.GitHub.BaseBranch = "master"
	}
	if c.GitHub.PullRequestMarker == "" {
		c.GitHub.PullRequestMarker = repository.DefaultPullRequestMarker
	}
	if c.PostsDir == "" {
		c.PostsDir = "_posts"
	}
	if c.ImagesDir == "" {
		c.ImagesDir = "assets/img"
	}
	if c.DefaultHero == "" {
		c.DefaultHero = markdown.DefaultHero
	}
	if c.Reviewers == nil {
		c.Reviewers = publish.DefaultReviewers
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = 10 << 20
	}
	if c.PublishLimit <= 0 {
		c.PublishLimit = 10
	}
	if c.PublishWindow <= 0 {
		c.PublishWindow = time.Hour
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 12 * time.Hour
	}
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("posteditor: session_secret is required")
	}
	if c.GitHub.Token == "" {
		return fmt.Errorf("posteditor: github.token is required")
	}
	if c.GitHub.Repository == "" {
		return fmt.Errorf("posteditor: github.repository is required")
	}
	if _, _, err := repository.ParseFullName(c.GitHub.Repository); err != nil {
		return fmt.Errorf("posteditor: %w", err)
	}
	return nil
}

// MarkdownConfig returns the engine settings derived from c.
func (c Config) MarkdownConfig() markdown.Config {
	return markdown.Config{DefaultHero: c.DefaultHero}
}

// RepositoryConfig returns the repository client settings derived from c.
func (c Config) RepositoryConfig() (repository.Config, error) {
	owner, name, err := repository.ParseFullName(c.GitHub.Repository)
	if err != nil {
		return repository.Config{}, err
	}
	return repository.Config{
		Token:             c.GitHub.Token,
		Owner:             owner,
		Name:              name,
		BaseBranch:        c.GitHub.BaseBranch,
		PostsDir:          c.PostsDir,
		PullRequestMarker: c.GitHub.PullRequestMarker,
		DefaultHero:       c.DefaultHero,
	}, nil
}

// PublishConfig returns the workflow settings derived from c.
func (c Config) PublishConfig() publish.Config {
	return publish.Config{
		BaseBranch:        c.GitHub.BaseBranch,
		PostsDir:          c.PostsDir,
		ImagesDir:         c.ImagesDir,
		PullRequestMarker: c.GitHub.PullRequestMarker,
		Reviewers:         c.Reviewers,
	}
}

// ConfigOption documents one configuration key and its default.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// ConfigOptions lists every configuration key with its default value.
func ConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "addr", Default: ":3000", Comment: "HTTP listen address"},
		{Key: "session_secret", Default: "", Comment: "Secret used to sign session cookies (required)"},
		{Key: "cookie_secure", Default: false, Comment: "Only send session cookies over HTTPS"},

		{Key: "github.token", Default: "", Comment: "Token with contents and pull request write access (required)"},
		{Key: "github.repository", Default: "", Comment: "Site repository as owner/name (required)"},
		{Key: "github.base_url", Default: "", Comment: "API root for GitHub Enterprise; empty for github.com"},
		{Key: "github.base_branch", Default: "master", Comment: "Branch posts are read from and pull requests target"},
		{Key: "github.pull_request_marker", Default: repository.DefaultPullRequestMarker, Comment: "Body of every pull request the editor opens"},

		{Key: "posts_dir", Default: "_posts", Comment: "Directory holding Jekyll posts"},
		{Key: "images_dir", Default: "assets/img", Comment: "Directory uploaded images are committed to"},
		{Key: "default_hero", Default: markdown.DefaultHero, Comment: "Hero image used when a post names none"},
		{Key: "reviewers", Default: publish.DefaultReviewers, Comment: "Reviewers requested on every pull request"},

		{Key: "max_upload_size", Default: int64(10 << 20), Comment: "Largest accepted image upload in bytes"},
		{Key: "publish_limit", Default: 10, Comment: "Publishes allowed per client per publish_window"},
		{Key: "publish_window", Default: time.Hour, Comment: "Window publish_limit applies to"},
		{Key: "session_ttl", Default: 12 * time.Hour, Comment: "Idle time after which a session's uploads are dropped"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range ConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// LoadConfig resolves configuration with precedence: defaults < file < env.
// Without an explicit config file, posteditor.{yaml,toml} is looked up in the
// working directory and $XDG_CONFIG_HOME/posteditor; a missing file is fine.
// Environment variables use the POSTEDITOR_ prefix, with "." in keys
// replaced by "_" (POSTEDITOR_GITHUB_TOKEN).
func LoadConfig(v *viper.Viper) (Config, error) {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("posteditor")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("posteditor: read config: %w", err)
		}
	}

	v.SetEnvPrefix("posteditor")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("posteditor: decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "posteditor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "posteditor")
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithRepository replaces the GitHub client built from Config.GitHub.
func WithRepository(r Repository) Option {
	return func(a *App) {
		a.Repo = r
	}
}

// WithRepositoryOptions passes options to the GitHub client built from
// Config.GitHub.
func WithRepositoryOptions(opts ...repository.Option) Option {
	return func(a *App) {
		a.repoOpts = append(a.repoOpts, opts...)
	}
}

// WithLogger sets the logger shared by the server and its components.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}
