package collect

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/hazyhaar/recolte/record"
)

// Scorer computes relevance scores for harvested records. The score is a
// weighted sum of engagement, freshness, and text quality, plus a flat
// bonus for tagged items. Each component is kept in the breakdown so the
// final number stays explainable.
type Scorer struct {
	cfg    ScorerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewScorer wires a Scorer. A nil logger falls back to slog.Default.
func NewScorer(cfg ScorerConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{cfg: cfg, logger: logger, now: time.Now}
}

// Score computes the score and its component breakdown for one record.
// Engagement counters seeded at collection time are read back from the
// existing breakdown; a record without them scores on text alone.
func (s *Scorer) Score(rec *record.ContentRecord) (float64, map[string]float64, error) {
	seed, err := rec.Breakdown()
	if err != nil {
		return 0, nil, err
	}

	engagement := s.cfg.EngagementWeight * engagementSignal(seed["upvotes"], seed["comments"])
	freshness := s.cfg.FreshnessWeight * s.freshnessSignal(rec.CreatedAt)

	text := rec.Title
	if rec.Description != nil {
		text += "\n" + *rec.Description
	}
	quality := s.cfg.QualityWeight * qualitySignal(text)

	var tagBonus float64
	if rec.Tags != nil && *rec.Tags != "" {
		tagBonus = s.cfg.TagBonus
	}

	breakdown := map[string]float64{
		"upvotes":    seed["upvotes"],
		"comments":   seed["comments"],
		"engagement": round3(engagement),
		"freshness":  round3(freshness),
		"quality":    round3(quality),
		"tag_bonus":  tagBonus,
	}
	total := round3(engagement + freshness + quality + tagBonus)
	return total, breakdown, nil
}

// ScorePending scores every unprocessed record and marks it processed.
// It returns the number of records scored.
func (s *Scorer) ScorePending(ctx context.Context, store *record.Store) (int, error) {
	recs, err := store.List(ctx, record.ListOptions{OrderBy: "id", Ascending: true})
	if err != nil {
		return 0, err
	}

	scored := 0
	for _, rec := range recs {
		if rec.Processed {
			continue
		}
		total, breakdown, err := s.Score(rec)
		if err != nil {
			s.logger.Error("score failed", "source", rec.Source, "source_id", rec.SourceID, "error", err)
			continue
		}
		_, err = store.Update(ctx, rec.Source, rec.SourceID, record.Patch{
			Score:     record.Float(total),
			Breakdown: breakdown,
			Processed: record.Bool(true),
		})
		if err != nil {
			return scored, err
		}
		scored++
	}
	s.logger.Info("scoring pass done", "scored", scored, "total", len(recs))
	return scored, nil
}

// engagementSignal compresses raw counters logarithmically so a 10k-upvote
// outlier does not drown everything else. Comments weigh double: they cost
// readers more than a vote.
func engagementSignal(upvotes, comments float64) float64 {
	if upvotes < 0 {
		upvotes = 0
	}
	if comments < 0 {
		comments = 0
	}
	return math.Log10(1 + upvotes + 2*comments)
}

// freshnessSignal decays exponentially with age, reaching 0.5 at the
// configured half-life.
func (s *Scorer) freshnessSignal(createdAt int64) float64 {
	age := s.now().Sub(time.UnixMilli(createdAt))
	if age <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * age.Seconds() / s.cfg.HalfLife.Std().Seconds())
}

// qualitySignal blends printable-character and word-like-token ratios.
// Mojibake and emoji walls drag the first down; keyword-stuffed or
// single-character noise drags the second.
func qualitySignal(text string) float64 {
	return 0.5*printableRatio(text) + 0.5*wordlikeRatio(text)
}

func printableRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	// Replacement character
	if r == 0xFFFD {
		return true
	}
	// Control chars except whitespace
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio returns the share of tokens with a plausible word length
// (2-15 runes).
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
