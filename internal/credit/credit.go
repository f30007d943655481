// Package credit looks up an applicant's credit score from the bureau API.
// The lookup is best effort: on any failure the configured default score is
// used so an application never stalls on the bureau.
package credit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
)

type Client struct {
	apiURL       string
	defaultScore int
	client       *http.Client

	retryDelay time.Duration
}

func NewClient(cfg config.Config) *Client {
	timeout := time.Duration(cfg.Credit.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiURL:       cfg.Credit.APIURL,
		defaultScore: cfg.Credit.DefaultScore,
		client:       &http.Client{Timeout: timeout},
		retryDelay:   time.Second,
	}
}

// Score returns the bureau's score for the applicant, or the default score
// when the bureau cannot answer. Transient failures are retried once; a bad
// answer (4xx, malformed, out of range) falls straight to the default. The
// bool reports whether the score came from the bureau.
func (c *Client) Score(ctx context.Context, ssnLast4, dob string) (int, bool) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				log.Printf("[credit] lookup failed, using default %d: %v", c.defaultScore, ctx.Err())
				metricLookups.WithLabelValues("default").Inc()
				return c.defaultScore, false
			}
		}
		score, retryable, err := c.fetch(ctx, ssnLast4, dob)
		if err == nil {
			metricLookups.WithLabelValues("bureau").Inc()
			return score, true
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	log.Printf("[credit] lookup failed, using default %d: %v", c.defaultScore, lastErr)
	metricLookups.WithLabelValues("default").Inc()
	return c.defaultScore, false
}

func (c *Client) fetch(ctx context.Context, ssnLast4, dob string) (score int, retryable bool, err error) {
	body, _ := json.Marshal(map[string]string{
		"ssn_last4": ssnLast4,
		"dob":       dob,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, resp.StatusCode >= 500, fmt.Errorf("bureau status=%d", resp.StatusCode)
	}

	var out struct {
		CreditScore int `json:"credit_score"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, true, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, false, fmt.Errorf("malformed bureau response: %w", err)
	}
	if out.CreditScore < 300 || out.CreditScore > 850 {
		return 0, false, fmt.Errorf("score %d out of range", out.CreditScore)
	}
	return out.CreditScore, false, nil
}
