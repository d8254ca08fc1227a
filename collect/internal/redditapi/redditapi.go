// Package redditapi fetches subreddit listings from the public JSON
// endpoints (no OAuth). It enforces a minimum interval between requests
// because the unauthenticated API is aggressively rate limited.
package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const maxBodyBytes = 10 * 1024 * 1024

// Config describes how to reach the listing API.
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	MinInterval time.Duration
}

// Post is one listing entry.
type Post struct {
	ID           string
	Subreddit    string
	Title        string
	Selftext     string
	SelftextHTML string
	URL          string
	FlairText    string
	Ups          int
	NumComments  int
	CreatedUTC   float64
	Over18       bool
}

// validSorts are the listing orders the public API accepts.
var validSorts = map[string]bool{
	"hot":    true,
	"new":    true,
	"top":    true,
	"rising": true,
}

// Client calls the listing API with a per-client rate limit.
type Client struct {
	cfg  Config
	http *http.Client

	mu       sync.Mutex
	lastCall time.Time
}

// New creates a Client. A nil-ish config gets a plain default transport;
// the caller is expected to have applied defaults already.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Listing fetches up to limit posts from one subreddit. sort must be one
// of hot, new, top, rising; timeFilter only applies to sort=top.
func (c *Client) Listing(ctx context.Context, subreddit, sort string, limit int, timeFilter string) ([]Post, error) {
	if subreddit == "" {
		return nil, fmt.Errorf("redditapi: subreddit is required")
	}
	if !validSorts[sort] {
		return nil, fmt.Errorf("redditapi: unknown sort %q", sort)
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	q := url.Values{"limit": {strconv.Itoa(limit)}, "raw_json": {"1"}}
	if sort == "top" && timeFilter != "" {
		q.Set("t", timeFilter)
	}
	endpoint := fmt.Sprintf("%s/r/%s/%s.json?%s",
		c.cfg.BaseURL, url.PathEscape(subreddit), sort, q.Encode())

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("redditapi: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("redditapi: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("redditapi: rate limited (http 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("redditapi: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("redditapi: read body: %w", err)
	}

	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("redditapi: json decode: %w", err)
	}

	posts := make([]Post, 0, len(env.Data.Children))
	for _, child := range env.Data.Children {
		p := child.Data
		if p.ID == "" || p.Title == "" {
			continue
		}
		posts = append(posts, Post{
			ID:           p.ID,
			Subreddit:    p.Subreddit,
			Title:        p.Title,
			Selftext:     p.Selftext,
			SelftextHTML: p.SelftextHTML,
			URL:          p.URL,
			FlairText:    p.LinkFlairText,
			Ups:          p.Ups,
			NumComments:  p.NumComments,
			CreatedUTC:   p.CreatedUTC,
			Over18:       p.Over18,
		})
	}
	return posts, nil
}

// throttle blocks until MinInterval has elapsed since the previous call.
// Each caller reserves the next slot under the lock, so concurrent calls
// queue up MinInterval apart instead of racing through together.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	wait := c.cfg.MinInterval - time.Since(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// listingEnvelope mirrors the {"data":{"children":[{"data":{...}}]}}
// shape of the listing endpoints.
type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data postPayload `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postPayload struct {
	ID            string  `json:"id"`
	Subreddit     string  `json:"subreddit"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	SelftextHTML  string  `json:"selftext_html"`
	URL           string  `json:"url"`
	LinkFlairText string  `json:"link_flair_text"`
	Ups           int     `json:"ups"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	Over18        bool    `json:"over_18"`
}
