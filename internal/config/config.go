package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// ErrMissingKey is returned when a required configuration key has no value.
var ErrMissingKey = errors.New("missing required config key")

// DefaultFile is the INI file read when no explicit path is given.
const DefaultFile = "config.ini"

// DefaultInvalidationPaths lists the CDN paths refreshed after every publish.
var DefaultInvalidationPaths = []string{
	"/index.html",
	"/archive.html",
	"/assets/js/main.js",
	"/assets/css/main.css",
}

// Config holds the application configuration loaded from the INI file and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	File     string `mapstructure:"-"`

	CampaignURL string `mapstructure:"mc_campaign_url"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	CFDistroID  string `mapstructure:"cf_distro_id"`
	Region      string `mapstructure:"region"`
	Profile     string `mapstructure:"profile"`

	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	TemplatesDir string `mapstructure:"templates_dir"`
	DistDir      string `mapstructure:"dist_dir"`
	ScrapedDir   string `mapstructure:"scraped_dir"`
	MarkerKey    string `mapstructure:"marker_key"`
	ImagePrefix  string `mapstructure:"image_prefix"`

	ImageHostsRaw        string   `mapstructure:"image_hosts"`
	ImageHosts           []string `mapstructure:"-"`
	InvalidationPathsRaw string   `mapstructure:"invalidation_paths"`
	InvalidationPaths    []string `mapstructure:"-"`

	CampaignSelector string `mapstructure:"campaign_selector"`
	ContentSelector  string `mapstructure:"content_selector"`
	ArchiveSelector  string `mapstructure:"archive_selector"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	NotifiersFile string `mapstructure:"notifiers_file"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`
}

// requiredKeys must resolve to a non-empty value before any network activity.
var requiredKeys = []string{"mc_campaign_url", "s3_bucket", "cf_distro_id", "region", "profile"}

// Load reads configuration from the INI file at path (config.ini when empty),
// configs/.env and environment variables, in increasing order of precedence.
// The file must exist and every remote key must be set.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadLocal is Load for commands that never reach the remote services, such
// as reading the run journal. A missing file or remote key is not an error.
func LoadLocal(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, strict bool) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultFile
	}

	v := viper.New()

	v.SetDefault("app_name", "campaign-mirror")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	for _, key := range requiredKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("access_key_id", "")
	v.SetDefault("secret_access_key", "")
	v.SetDefault("templates_dir", "templates")
	v.SetDefault("dist_dir", "dist")
	v.SetDefault("scraped_dir", "scraped")
	v.SetDefault("marker_key", "latest.txt")
	v.SetDefault("image_prefix", "assets/mailchimpGallery")
	v.SetDefault("image_hosts", "gallery.mailchimp.com,mcusercontent.com")
	v.SetDefault("invalidation_paths", strings.Join(DefaultInvalidationPaths, ","))
	v.SetDefault("campaign_selector", ".campaign a")
	v.SetDefault("content_selector", "table")
	v.SetDefault("archive_selector", "ul#archive-list")
	v.SetDefault("http_timeout_seconds", 0) // transport default
	v.SetDefault("notifiers_file", "")
	v.SetDefault("journal_type", "bbolt")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((24*time.Hour)/time.Second))

	values, err := readINI(path)
	switch {
	case err == nil:
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("merge config file: %w", err)
		}
	case strict || !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = path

	for _, key := range requiredKeys {
		if strict && strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}

	if cfg.HTTPTimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.JournalTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second

	cfg.ImageHosts = splitList(cfg.ImageHostsRaw)
	cfg.InvalidationPaths = splitList(cfg.InvalidationPathsRaw)
	if len(cfg.InvalidationPaths) == 0 {
		return nil, fmt.Errorf("invalidation_paths must list at least one path")
	}

	return &cfg, nil
}

// readINI flattens every section of the INI file into a single key space.
// Keys are unique across the [DEFAULT] and [aws] sections, so the section
// name only serves as documentation in the file.
func readINI(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	values := make(map[string]any)
	for _, section := range file.Sections() {
		for _, key := range section.Keys() {
			values[strings.ToLower(strings.TrimSpace(key.Name()))] = strings.TrimSpace(key.Value())
		}
	}
	return values, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
