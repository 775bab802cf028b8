package matching_test

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stamp-match-backend/internal/matching"
	"stamp-match-backend/internal/models"
)

type fakeDownloader struct {
	files map[string][]byte
}

func (f *fakeDownloader) DownloadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, assert.AnError
	}
	return data, nil
}

func vectorOrder(id int64, path string) models.Order {
	return models.Order{
		ID:               id,
		VectorDesignPath: sql.NullString{String: path, Valid: true},
	}
}

func buildCorpus(t *testing.T, orders ...models.Order) *matching.Corpus {
	t.Helper()
	files := map[string][]byte{}
	for _, order := range orders {
		if order.BaseDesignPath.Valid {
			files[order.BaseDesignPath.String] = []byte("<svg/>")
		}
		if order.VectorDesignPath.Valid {
			files[order.VectorDesignPath.String] = []byte("<svg/>")
		}
	}
	builder := matching.NewCorpusBuilder(&fakeDownloader{files: files}, zerolog.Nop())
	return builder.Build(orders)
}

func TestBetterCandidate_StrictGreater(t *testing.T) {
	a := matching.Candidate{SVG: "vector_1.svg", Score: 0.81}
	b := matching.Candidate{SVG: "vector_2.svg", Score: 0.81}

	// On an exact tie the incumbent wins, so the earliest-listed
	// candidate survives a left-to-right scan.
	assert.False(t, matching.BetterCandidate(a, b))
	assert.False(t, matching.BetterCandidate(b, a))

	a.Score = 0.82
	assert.True(t, matching.BetterCandidate(a, b))
	assert.False(t, matching.BetterCandidate(b, a))
}

func TestBestEligible_GatedByMatchFlag(t *testing.T) {
	candidates := []matching.Candidate{
		{SVG: "vector_1.svg", Score: 0.99, IsMatch: false},
		{SVG: "vector_2.svg", Score: 0.60, IsMatch: true},
	}

	best, ok := matching.BestEligible(candidates)
	require.True(t, ok)
	assert.Equal(t, "vector_2.svg", best.SVG)
}

func TestBestEligible_NoneFlagged(t *testing.T) {
	candidates := []matching.Candidate{
		{SVG: "vector_1.svg", Score: 0.99, IsMatch: false},
	}

	_, ok := matching.BestEligible(candidates)
	assert.False(t, ok)

	_, ok = matching.BestEligible(nil)
	assert.False(t, ok)
}

func TestCorrelate_TieBreakKeepsEarliestListed(t *testing.T) {
	corpus := buildCorpus(t,
		vectorOrder(77, "designs/77.svg"),
		vectorOrder(78, "designs/78.svg"),
	)
	photos := []models.Photo{
		{ID: "fotos/a.jpg", SourceFilename: "a.jpg", Status: models.StatusUploaded},
	}
	candidates := map[string][]matching.Candidate{
		"a.jpg": {
			{SVG: "vector_77.svg", Score: 0.81, IsMatch: true},
			{SVG: "vector_78.svg", Score: 0.81, IsMatch: true},
		},
	}

	correlator := matching.NewCorrelator(zerolog.Nop())
	matched, unmatched := correlator.Correlate(photos, candidates, corpus)

	require.Len(t, matched, 1)
	assert.Empty(t, unmatched)
	assert.Equal(t, int64(77), matched[0].OrderID)
	assert.Equal(t, 0.81, matched[0].Score)
	assert.True(t, matched[0].NeedsConfirmation)
}

func TestCorrelate_UnresolvableKeyTreatedAsUnmatched(t *testing.T) {
	corpus := buildCorpus(t, vectorOrder(1, "designs/1.svg"))
	photos := []models.Photo{
		{ID: "fotos/a.jpg", SourceFilename: "a.jpg"},
	}
	candidates := map[string][]matching.Candidate{
		"a.jpg": {
			{SVG: "vector_999.svg", Score: 0.95, IsMatch: true},
		},
	}

	correlator := matching.NewCorrelator(zerolog.Nop())
	matched, unmatched := correlator.Correlate(photos, candidates, corpus)

	assert.Empty(t, matched)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "fotos/a.jpg", unmatched[0].ID)
}

func TestCorrelate_Deterministic(t *testing.T) {
	corpus := buildCorpus(t,
		vectorOrder(10, "designs/10.svg"),
		vectorOrder(20, "designs/20.svg"),
	)
	photos := []models.Photo{
		{ID: "fotos/a.jpg", SourceFilename: "a.jpg"},
		{ID: "fotos/b.jpg", SourceFilename: "b.jpg"},
	}
	candidates := map[string][]matching.Candidate{
		"a.jpg": {
			{SVG: "vector_10.svg", Score: 0.7, IsMatch: true},
			{SVG: "vector_20.svg", Score: 0.7, IsMatch: true},
		},
		"b.jpg": {
			{SVG: "vector_20.svg", Score: 0.9, IsMatch: true},
		},
	}

	correlator := matching.NewCorrelator(zerolog.Nop())
	first, _ := correlator.Correlate(photos, candidates, corpus)
	second, _ := correlator.Correlate(photos, candidates, corpus)

	assert.Equal(t, first, second)
}
