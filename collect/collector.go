package collect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/recolte/collect/internal/redditapi"
	"github.com/hazyhaar/recolte/record"
)

// SourceReddit is the source tag stamped on every harvested reddit record.
const SourceReddit = "reddit"

// lister is the subset of the platform client the collector needs.
type lister interface {
	Listing(ctx context.Context, subreddit, sort string, limit int, timeFilter string) ([]redditapi.Post, error)
}

// Collector harvests subreddit listings into the record store.
type Collector struct {
	store  *record.Store
	client lister
	cfg    CollectorConfig
	norm   *Normalizer
	logger *slog.Logger
}

// NewCollector wires a Collector. A nil logger falls back to slog.Default.
func NewCollector(store *record.Store, client *redditapi.Client, cfg CollectorConfig, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		store:  store,
		client: client,
		cfg:    cfg,
		norm:   NewNormalizer(),
		logger: logger,
	}
}

// NewCollectorFromConfig builds the platform client from cfg.Fetch and
// wires a Collector around it.
func NewCollectorFromConfig(store *record.Store, cfg *Config, logger *slog.Logger) *Collector {
	return NewCollector(store, redditapi.New(cfg.Fetch.ClientConfig()), cfg.Collector, logger)
}

// Run harvests every configured subreddit once and records the pass in the
// run log. A subreddit that fails is logged and noted on the run but does
// not abort the others; Run only returns an error when nothing could be
// fetched at all.
func (c *Collector) Run(ctx context.Context) (*record.Run, error) {
	start := time.Now()
	run := &record.Run{Source: SourceReddit, StartedAt: start.UnixMilli()}

	var failures []string
	for _, sub := range c.cfg.Subreddits {
		posts, err := c.client.Listing(ctx, sub, c.cfg.Sort, c.cfg.Limit, c.cfg.TimeFilter)
		if err != nil {
			c.logger.Error("listing failed", "subreddit", sub, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", sub, err))
			continue
		}
		for _, post := range posts {
			if post.Over18 {
				continue
			}
			run.ItemsSeen++

			rec, err := c.store.Upsert(ctx, c.draft(post))
			if err != nil {
				c.logger.Error("upsert failed", "subreddit", sub, "post", post.ID, "error", err)
				failures = append(failures, fmt.Sprintf("%s/%s: %v", sub, post.ID, err))
				continue
			}
			if rec.CreatedAt == rec.UpdatedAt {
				run.ItemsNew++
			} else {
				run.ItemsUpdated++
			}
		}
		c.logger.Info("subreddit harvested", "subreddit", sub, "posts", len(posts))
	}

	run.DurationMs = time.Since(start).Milliseconds()
	run.Error = strings.Join(failures, "; ")

	if err := c.store.InsertRun(ctx, run); err != nil {
		return run, err
	}
	if run.ItemsSeen == 0 && len(failures) > 0 {
		return run, fmt.Errorf("collect: all listings failed: %s", run.Error)
	}
	return run, nil
}

// draft maps one listing post to a store draft. Engagement counters go
// into the breakdown so the scorer can weigh them later without another
// API call.
func (c *Collector) draft(post redditapi.Post) record.Draft {
	d := record.Draft{
		Source:   SourceReddit,
		SourceID: post.ID,
		Title:    CollapseWhitespace(post.Title),
		Breakdown: map[string]float64{
			"upvotes":  float64(post.Ups),
			"comments": float64(post.NumComments),
		},
	}

	if body := c.norm.Body(post.SelftextHTML, post.Selftext); body != "" {
		d.Description = record.String(body)
	} else if post.URL != "" {
		// Link posts have no body; keep the target URL as the description.
		d.Description = record.String(post.URL)
	}

	if tags := NormalizeTags([]string{post.Subreddit, post.FlairText}); tags != "" {
		d.Tags = record.String(tags)
	}
	return d
}
