package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"credex/internal/application"
)

// Client calls the external scoring service over HTTP. Any transport failure,
// timeout, or non-200 response maps to ErrUnavailable; retries are the
// scoring service client's own concern, never the pipeline's.
type Client struct {
	url     string
	httpc   *http.Client
	timeout time.Duration
}

// NewClient builds a scoring client for the given endpoint.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		url:     url,
		httpc:   &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type scoreRequest struct {
	ApplicationID string                       `json:"application_id"`
	Attributes    map[string]application.Value `json:"attributes"`
}

func (c *Client) Score(ctx context.Context, app application.Application) (*Result, error) {
	body, err := json.Marshal(scoreRequest{
		ApplicationID: app.ID.String(),
		Attributes:    app.Attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scoring service returned %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode score response: %v", ErrUnavailable, err)
	}
	if result.RiskScore < 0 || result.RiskScore > 1 {
		return nil, fmt.Errorf("%w: risk score %g outside [0,1]", ErrUnavailable, result.RiskScore)
	}

	return &result, nil
}
