package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// defaultInferTimeout bounds a single model service call.
const defaultInferTimeout = 10 * time.Second

// HTTPScorer calls a remote model service for classification.
//
// The wire contract is a POST to {base}/infer with
// {"features":[...15 floats...]} returning
// {"probabilities":[healthy, stressed, critical]}. The service owns the
// trained weights; this client only moves vectors.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
}

// inferRequest is the model service request body.
type inferRequest struct {
	Features []float64 `json:"features"`
}

// inferResponse is the model service response body.
type inferResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// NewHTTPScorer creates a scorer against the given model service URL.
func NewHTTPScorer(baseURL string) *HTTPScorer {
	return &HTTPScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultInferTimeout},
	}
}

// Infer posts the feature vector to the model service.
//
// Returns:
//   - []float64: the service's probability vector, passed through as-is
//     (length validation belongs to the analysis pipeline)
//   - error: wrapping ErrUnavailable when the service cannot serve the
//     request
func (s *HTTPScorer) Infer(ctx context.Context, features []float64) ([]float64, error) {
	body, err := json.Marshal(inferRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %w", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/infer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model service returned %s", ErrUnavailable, resp.Status)
	}

	var decoded inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}

	return decoded.Probabilities, nil
}
