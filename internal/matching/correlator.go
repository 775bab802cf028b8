package matching

import (
	"strings"

	"github.com/rs/zerolog"
	"stamp-match-backend/internal/models"
)

// Result is one photo resolved to a concrete order, awaiting human
// confirmation.
type Result struct {
	PhotoID           string
	OrderID           int64
	Score             float64
	NeedsConfirmation bool
}

// BetterCandidate reports whether challenger should replace incumbent as
// the current best candidate. Strict greater-than: on an exact score tie
// the incumbent wins, so a left-to-right scan keeps the earliest-listed
// candidate and the outcome is deterministic.
func BetterCandidate(challenger, incumbent Candidate) bool {
	return challenger.Score > incumbent.Score
}

// BestEligible picks the winning candidate from one photo's list. Only
// candidates the service flagged as matches are eligible; a higher raw
// score with the flag unset never wins.
func BestEligible(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, candidate := range candidates {
		if !candidate.IsMatch {
			continue
		}
		if !found || BetterCandidate(candidate, best) {
			best = candidate
			found = true
		}
	}
	return best, found
}

type Correlator struct {
	log zerolog.Logger
}

func NewCorrelator(logger zerolog.Logger) *Correlator {
	return &Correlator{log: logger}
}

// Correlate resolves each photo's candidate list against the corpus and
// partitions the batch into matched results and unmatched photos. A
// winning key that no longer resolves to an order is logged and treated
// as unmatched, never surfaced as an error.
func (c *Correlator) Correlate(photos []models.Photo, candidates map[string][]Candidate, corpus *Corpus) ([]Result, []models.Photo) {
	var matched []Result
	var unmatched []models.Photo

	for _, photo := range photos {
		best, ok := BestEligible(candidates[photo.SourceFilename])
		if !ok {
			unmatched = append(unmatched, photo)
			continue
		}

		key := strings.TrimSuffix(best.SVG, ".svg")
		order, ok := corpus.ResolveOrder(key)
		if !ok {
			c.log.Warn().Str("photo", photo.SourceFilename).Str("key", key).
				Msg("match references unknown design asset, treating as unmatched")
			unmatched = append(unmatched, photo)
			continue
		}

		matched = append(matched, Result{
			PhotoID:           photo.ID,
			OrderID:           order.ID,
			Score:             best.Score,
			NeedsConfirmation: true,
		})
	}

	return matched, unmatched
}
