package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
)

// Evaluator calls the external rules engine and maps its answer, or its
// failure, into a Result. Evaluate always returns a terminal Result; the
// caller can always derive an Outcome from it.
type Evaluator struct {
	apiKey  string
	ruleID  string
	host    string
	timeout time.Duration
	client  *http.Client
	gate    chan struct{}

	// retryDelay is the backoff before the single retry. The exact timing is
	// a free parameter; tests shorten it.
	retryDelay time.Duration
}

func NewEvaluator(cfg config.Config) *Evaluator {
	maxInFlight := cfg.Rules.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	timeout := time.Duration(cfg.Rules.TimeoutSec) * time.Second
	return &Evaluator{
		apiKey:     cfg.Rules.APIKey,
		ruleID:     cfg.Rules.RuleID,
		host:       strings.TrimRight(cfg.Rules.Host, "/"),
		timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
		gate:       make(chan struct{}, maxInFlight),
		retryDelay: 2 * time.Second,
	}
}

// reviewResult is the sentinel returned when the rules engine cannot be
// reached: the application goes to human review instead of failing.
func reviewResult(reason string) Result {
	return Result{RequiresReview: true, RiskLevel: RiskHigh, Reason: reason}
}

func (e *Evaluator) Evaluate(ctx context.Context, rec ApplicationRecord) Result {
	select {
	case e.gate <- struct{}{}:
		defer func() { <-e.gate }()
	case <-ctx.Done():
		return reviewResult("rules engine call cancelled")
	}

	input := map[string]any{
		"credit_score":     rec.CreditScore,
		"monthly_income":   rec.MonthlyIncome,
		"requested_amount": rec.RequestedAmount,
		"zip_code":         rec.ZipCode,
		"ssn_last4":        rec.SSNLast4,
		"dob":              rec.DOB,
		"purpose_of_loan":  rec.Purpose,
		"application_id":   rec.ApplicationID,
		"consent_given":    rec.TermsConsent,

		"debt_to_income_ratio":      rec.DebtToIncomeRatio,
		"estimated_monthly_payment": rec.EstimatedMonthlyPayment,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			metricRetries.Inc()
			select {
			case <-time.After(e.retryDelay):
			case <-ctx.Done():
				return reviewResult("rules engine call cancelled")
			}
		}
		res, err := e.solve(ctx, input)
		if err == nil {
			metricEvaluations.WithLabelValues(outcomeLabel(res)).Inc()
			return res
		}
		lastErr = err
		log.Printf("[decision] rules engine attempt=%d app=%s: %v", attempt+1, rec.ApplicationID, err)
	}
	metricEvaluations.WithLabelValues("unavailable").Inc()
	return reviewResult(fmt.Sprintf("rules engine unavailable: %v", lastErr))
}

func (e *Evaluator) solve(ctx context.Context, input map[string]any) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rule/solve/%s", e.host, e.ruleID)
	body, _ := json.Marshal(map[string]any{"data": input})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("rules engine status=%d body=%s", resp.StatusCode, string(b))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}
	return parseResult(data)
}

// parseResult tolerates the provider's loose response shapes: a bare result
// object or an array of them (the solver wraps outputs in an array).
func parseResult(data []byte) (Result, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, fmt.Errorf("malformed rules response: %w", err)
	}
	obj := firstObject(raw)
	if obj == nil {
		return Result{}, fmt.Errorf("no decision object in rules response")
	}

	var res Result
	res.Approved = asBool(obj["approved"])
	res.ProvisionalAmount = asFloat(obj["provisional_amount"])
	if rng, ok := obj["interest_rate_range"].(map[string]any); ok {
		res.RateMin = asFloat(rng["min"])
		res.RateMax = asFloat(rng["max"])
	}
	res.RiskLevel = RiskLevel(strings.ToLower(asString(obj["risk_level"])))
	switch res.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		res.RiskLevel = RiskHigh
		res.RequiresReview = true
	}
	if asBool(obj["requires_review"]) {
		res.RequiresReview = true
	}
	res.Reason = asString(obj["reason"])
	return res, nil
}

func firstObject(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case []any:
		for _, item := range v {
			if obj := firstObject(item); obj != nil {
				return obj
			}
		}
	}
	return nil
}

func outcomeLabel(r Result) string {
	switch {
	case r.RequiresReview:
		return "review"
	case r.Approved:
		return "approved"
	default:
		return "denied"
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true") || strings.EqualFold(t, "yes")
	default:
		return false
	}
}

func asFloat(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
