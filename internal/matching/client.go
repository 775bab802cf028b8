package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Candidate is one ranked match the service proposes for a photo. SVG is
// the synthetic design filename ({role}_{orderID}.svg); IsMatch is the
// service's eligibility flag and is authoritative, the score only ranks
// within eligible candidates.
type Candidate struct {
	SVG     string  `json:"svg"`
	Score   float64 `json:"score"`
	IsMatch bool    `json:"match"`
}

// PhotoFile is one photo submitted in a batch call, keyed by its original
// filename in the service response.
type PhotoFile struct {
	Name string
	Data []byte
}

type photoResult struct {
	Foto    string      `json:"foto"`
	Matches []Candidate `json:"matches"`
	Error   string      `json:"error"`
}

type predictResponse struct {
	Success bool          `json:"success"`
	Results []photoResult `json:"results"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type Client struct {
	baseURL       string
	healthTimeout time.Duration
	callTimeout   time.Duration
	httpClient    *http.Client
	log           zerolog.Logger
}

func NewClient(baseURL string, healthTimeout, callTimeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		healthTimeout: healthTimeout,
		callTimeout:   callTimeout,
		httpClient:    &http.Client{},
		log:           logger,
	}
}

// Health probes the service's liveness endpoint under the probe timeout.
// Any failure, including timeout, surfaces as ErrServiceUnavailable so the
// caller can fail fast before building or sending a batch.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: health probe timed out after %s", ErrServiceUnavailable, c.healthTimeout)
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("%w: malformed health response: %v", ErrServiceUnavailable, err)
	}

	return nil
}

// Predict submits the whole design corpus and photo batch in one multipart
// call and returns, per photo filename, the ranked candidate list. An empty
// corpus or photo batch short-circuits without calling the service. A photo
// the service reports an error for gets no candidates and is absent from
// the result.
func (c *Client) Predict(ctx context.Context, assets []Asset, photos []PhotoFile) (map[string][]Candidate, error) {
	if len(assets) == 0 || len(photos) == 0 {
		return map[string][]Candidate{}, nil
	}

	body, contentType, err := buildPredictForm(assets, photos)
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("matching call timed out after %s: %w", c.callTimeout, err)
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result predictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	candidates := make(map[string][]Candidate, len(result.Results))
	for _, entry := range result.Results {
		if entry.Error != "" {
			c.log.Warn().Str("foto", entry.Foto).Str("error", entry.Error).
				Msg("service could not evaluate photo")
			continue
		}
		candidates[entry.Foto] = entry.Matches
	}

	return candidates, nil
}

func buildPredictForm(assets []Asset, photos []PhotoFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, asset := range assets {
		part, err := writer.CreateFormFile("svgs", asset.Key+".svg")
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(asset.Data); err != nil {
			return nil, "", err
		}
	}

	for _, photo := range photos {
		part, err := writer.CreateFormFile("fotos", photo.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(photo.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
