// Package collect turns social platform listings into persisted content
// records: fetch, normalize, upsert, score. It sits on top of the record
// store and exposes the HTTP API for browsing what was harvested.
package collect

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/recolte/collect/internal/redditapi"
)

// Duration is a time.Duration that YAML-decodes from strings like "30s"
// or "2h", or from plain integer seconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("collect: invalid duration %q: %v", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs int64
	if err := node.Decode(&secs); err != nil {
		return fmt.Errorf("collect: invalid duration %q", node.Value)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config configures the collection service.
type Config struct {
	// DBPath is the record database file.
	DBPath string `yaml:"db_path"`

	// Fetch settings for the platform API client.
	Fetch FetchConfig `yaml:"fetch"`

	// Collector settings
	Collector CollectorConfig `yaml:"collector"`

	// Scorer settings
	Scorer ScorerConfig `yaml:"scorer"`

	// HTTP settings for the API server.
	HTTP HTTPConfig `yaml:"http"`
}

// FetchConfig configures the platform API client.
type FetchConfig struct {
	BaseURL     string   `yaml:"base_url"`
	UserAgent   string   `yaml:"user_agent"`
	Timeout     Duration `yaml:"timeout"`
	MinInterval Duration `yaml:"min_interval"`
}

// ClientConfig converts the fetch settings into the client's config.
func (f FetchConfig) ClientConfig() redditapi.Config {
	return redditapi.Config{
		BaseURL:     f.BaseURL,
		UserAgent:   f.UserAgent,
		Timeout:     f.Timeout.Std(),
		MinInterval: f.MinInterval.Std(),
	}
}

// CollectorConfig selects what to harvest.
type CollectorConfig struct {
	Subreddits []string `yaml:"subreddits"`
	Sort       string   `yaml:"sort"`        // hot, new, top, rising
	Limit      int      `yaml:"limit"`       // posts per subreddit
	TimeFilter string   `yaml:"time_filter"` // for sort=top: hour, day, week, month, year, all
}

// ScorerConfig weights the score components.
type ScorerConfig struct {
	EngagementWeight float64  `yaml:"engagement_weight"`
	FreshnessWeight  float64  `yaml:"freshness_weight"`
	QualityWeight    float64  `yaml:"quality_weight"`
	TagBonus         float64  `yaml:"tag_bonus"`
	HalfLife         Duration `yaml:"half_life"` // freshness decay half-life
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "db/recolte.db"
	}
	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = "https://www.reddit.com"
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "recolte/1.0"
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = Duration(30 * time.Second)
	}
	if c.Fetch.MinInterval <= 0 {
		c.Fetch.MinInterval = Duration(2 * time.Second)
	}
	if len(c.Collector.Subreddits) == 0 {
		c.Collector.Subreddits = []string{"golang"}
	}
	if c.Collector.Sort == "" {
		c.Collector.Sort = "hot"
	}
	if c.Collector.Limit <= 0 {
		c.Collector.Limit = 25
	}
	if c.Collector.TimeFilter == "" {
		c.Collector.TimeFilter = "day"
	}
	if c.Scorer.EngagementWeight <= 0 {
		c.Scorer.EngagementWeight = 4
	}
	if c.Scorer.FreshnessWeight <= 0 {
		c.Scorer.FreshnessWeight = 3
	}
	if c.Scorer.QualityWeight <= 0 {
		c.Scorer.QualityWeight = 2
	}
	if c.Scorer.TagBonus <= 0 {
		c.Scorer.TagBonus = 1
	}
	if c.Scorer.HalfLife <= 0 {
		c.Scorer.HalfLife = Duration(48 * time.Hour)
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8086"
	}
}

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() *Config {
	c := &Config{}
	c.defaults()
	return c
}

// LoadConfig reads a YAML config file and fills in defaults for anything
// the file leaves unset. A missing file is not an error: it yields the
// default config, so first runs work without any setup.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("collect: read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("collect: parse config %s: %w", path, err)
	}
	c.defaults()
	return &c, nil
}
