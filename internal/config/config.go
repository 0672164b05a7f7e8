package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SecretSanta/internal/domain"
)

const (
	defaultInputPath = "input.yaml"
	configPathEnv    = "SANTA_CONFIG"
	smtpUserEnv      = "SANTA_EMAIL"
	smtpPasswordEnv  = "SANTA_PASSWORD"
	dontScrapeEnv    = "SANTA_DONT_SCRAPE"
	logLevelEnv      = "SANTA_LOG_LEVEL"
)

// Cache backends.
const (
	CacheFile     = "file"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
	CacheMemory   = "memory"
)

// Config is the whole run configuration snapshot.
type Config struct {
	Participants []ParticipantConfig `yaml:"participants"`
	Scrapers     []ScraperConfig     `yaml:"scrapers"`
	Email        EmailConfig         `yaml:"email"`
	SMTP         SMTPConfig          `yaml:"smtp"`
	Cache        CacheConfig         `yaml:"cache"`
	Scrape       ScrapeConfig        `yaml:"scrape"`
	Render       RenderConfig        `yaml:"render"`
	Preview      PreviewConfig       `yaml:"preview"`
	Logging      LoggingConfig       `yaml:"logging"`
}

// ParticipantConfig declares one person and their raw wishlist lines.
type ParticipantConfig struct {
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Wishlist []string `yaml:"wishlist"`
}

// ScraperConfig declares how to enrich references for one source.
type ScraperConfig struct {
	Source         string            `yaml:"source"`
	ScrapeTemplate string            `yaml:"scrapeTemplate"`
	HrefTemplate   string            `yaml:"hrefTemplate"`
	Fields         map[string]string `yaml:"fields"`
	Headers        map[string]string `yaml:"headers"`
}

// EmailConfig holds message level settings.
type EmailConfig struct {
	Subject     string `yaml:"subject"`
	FromName    string `yaml:"fromName"`
	TestAddress string `yaml:"testAddress"`
}

// SMTPConfig wires the outbound mail account.
type SMTPConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig selects the product cache backend.
type CacheConfig struct {
	Backend   string `yaml:"backend"`
	Dir       string `yaml:"dir"`
	DSN       string `yaml:"dsn"`
	RedisAddr string `yaml:"redisAddr"`
}

// ScrapeConfig tunes product page fetching.
type ScrapeConfig struct {
	Disabled      bool          `yaml:"disabled"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
}

// RenderConfig locates templates and sizes the snapshot.
type RenderConfig struct {
	TemplateDir string `yaml:"templateDir"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	BrowserBin  string `yaml:"browserBin"`
}

// PreviewConfig controls dry-run output.
type PreviewConfig struct {
	Output string `yaml:"output"`
	Style  string `yaml:"style"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Path resolves the config file location: explicit flag, then SANTA_CONFIG, then input.yaml.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(configPathEnv); v != "" {
		return v
	}
	return defaultInputPath
}

// Load reads .env (if any), the YAML document at path, applies defaults and environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document without touching the filesystem.
func Parse(raw []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse: %v", domain.ErrConfiguration, err)
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv reads .env (or the given files) into the process environment. A missing
// file is not an error.
func loadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: load .env: %v", domain.ErrConfiguration, err)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.SMTP.Username = v
	}

	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.SMTP.Password = v
	}

	if strings.EqualFold(os.Getenv(dontScrapeEnv), "TRUE") {
		c.Scrape.Disabled = true
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// fillDefaults restores defaults for keys the document set to empty values.
func (c *Config) fillDefaults() {
	def := defaultConfig()

	if c.Email.FromName == "" {
		c.Email.FromName = def.Email.FromName
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = def.SMTP.Host
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = def.SMTP.Port
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = def.Cache.Backend
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = def.Cache.Dir
	}
	if c.Scrape.Timeout <= 0 {
		c.Scrape.Timeout = def.Scrape.Timeout
	}
	if c.Render.Width <= 0 {
		c.Render.Width = def.Render.Width
	}
	if c.Render.Height <= 0 {
		c.Render.Height = def.Render.Height
	}
	if c.Preview.Output == "" {
		c.Preview.Output = def.Preview.Output
	}
}

// Validate reports the first structural problem as ErrConfiguration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Email.Subject) == "" {
		return fmt.Errorf("%w: email.subject is required", domain.ErrConfiguration)
	}

	for i, p := range c.Participants {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Email) == "" {
			return fmt.Errorf("%w: participant #%d needs a name and an email", domain.ErrConfiguration, i+1)
		}
	}

	seen := map[string]struct{}{}
	for _, s := range c.Scrapers {
		if s.Source == "" {
			return fmt.Errorf("%w: scraper without source", domain.ErrConfiguration)
		}
		if !domain.ValidSource(s.Source) {
			return fmt.Errorf("%w: scraper source %q must be lowercase letters, digits, _ or -", domain.ErrConfiguration, s.Source)
		}
		if _, ok := seen[s.Source]; ok {
			return fmt.Errorf("%w: scraper %s declared twice", domain.ErrConfiguration, s.Source)
		}
		seen[s.Source] = struct{}{}

		if s.ScrapeTemplate == "" || s.HrefTemplate == "" {
			return fmt.Errorf("%w: scraper %s needs scrapeTemplate and hrefTemplate", domain.ErrConfiguration, s.Source)
		}
		if _, ok := s.Fields[domain.FieldTitle]; !ok {
			return fmt.Errorf("%w: scraper %s has no %s selector", domain.ErrConfiguration, s.Source, domain.FieldTitle)
		}
		for name := range s.Fields {
			switch name {
			case domain.FieldTitle, domain.FieldSalePrice, domain.FieldListPrice:
			default:
				return fmt.Errorf("%w: scraper %s has unknown field %q", domain.ErrConfiguration, s.Source, name)
			}
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheMemory:
	case CacheSQLite, CachePostgres:
		if c.Cache.DSN == "" {
			return fmt.Errorf("%w: cache.dsn is required for %s", domain.ErrConfiguration, c.Cache.Backend)
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redisAddr is required for redis", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", domain.ErrConfiguration, c.Cache.Backend)
	}

	if c.Scrape.RatePerSecond < 0 {
		return fmt.Errorf("%w: scrape.ratePerSecond must not be negative", domain.ErrConfiguration)
	}

	return nil
}

// ParticipantList converts the declared participants into domain values.
func (c Config) ParticipantList() []domain.Participant {
	out := make([]domain.Participant, 0, len(c.Participants))
	for _, p := range c.Participants {
		out = append(out, domain.Participant{
			Name:     p.Name,
			Email:    p.Email,
			Wishlist: p.Wishlist,
		})
	}
	return out
}

// ScraperList converts the declared scrapers into domain values.
func (c Config) ScraperList() []domain.Scraper {
	out := make([]domain.Scraper, 0, len(c.Scrapers))
	for _, s := range c.Scrapers {
		out = append(out, domain.Scraper{
			Source:         s.Source,
			ScrapeTemplate: s.ScrapeTemplate,
			HrefTemplate:   s.HrefTemplate,
			Fields:         s.Fields,
			Headers:        s.Headers,
		})
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Email: EmailConfig{FromName: "Santa Bot"},
		SMTP: SMTPConfig{
			Host:    "smtp.gmail.com",
			Port:    587,
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{Backend: CacheFile, Dir: ".scraper_cache"},
		Scrape: ScrapeConfig{
			Timeout:       20 * time.Second,
			RatePerSecond: 1,
		},
		Render:  RenderConfig{Width: 1200, Height: 600},
		Preview: PreviewConfig{Output: "test.html", Style: "notty"},
		Logging: LoggingConfig{Level: "info"},
	}
}
