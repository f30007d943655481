package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/applink"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/credit"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/decision"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/health"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/store"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/transport"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

type Handlers struct {
	cfg       config.Config
	store     *store.Store
	evaluator *decision.Evaluator
	credit    *credit.Client
	mailer    *applink.Mailer

	// RunSession owns the media stream for the life of the call. Wired by
	// main; tests may stub it.
	RunSession func(ctx context.Context, callID string, conn *transport.Conn)

	appSeq atomic.Int64
}

func NewHandlers(cfg config.Config, st *store.Store, ev *decision.Evaluator, cr *credit.Client, m *applink.Mailer) *Handlers {
	return &Handlers{cfg: cfg, store: st, evaluator: ev, credit: cr, mailer: m}
}

// HandleVoice answers Twilio's webhook for an inbound call with TwiML that
// connects the call's media stream to our websocket endpoint.
func (h *Handlers) HandleVoice(w http.ResponseWriter, r *http.Request) {
	streamURL := h.cfg.Server.StreamURL
	if streamURL == "" {
		scheme := "wss"
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" {
			scheme = "ws"
		}
		streamURL = fmt.Sprintf("%s://%s/ws", scheme, r.Host)
	}
	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s" />
  </Connect>
</Response>
`, streamURL)
}

// HandleReady probes the external providers the call path depends on.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	status := health.CheckAll(ctx, h.cfg)
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// HandleMediaStream upgrades the websocket and runs the call session until
// the stream ends. The handler blocks for the call's duration.
func (h *Handlers) HandleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := transport.Accept(r.Context(), w, r)
	if err != nil {
		log.Printf("[api] media stream accept: %v", err)
		return
	}

	callID := uuid.New().String()
	_ = h.store.CreateCall(&types.Call{
		ID:        callID,
		StreamSid: conn.StreamSid(),
		CallSid:   conn.CallSid(),
		CreatedAt: time.Now().UTC(),
		Status:    "created",
	})

	if h.RunSession == nil {
		log.Printf("[api] no session runner configured, dropping call=%s", callID)
		conn.Close()
		return
	}
	h.RunSession(r.Context(), callID, conn)
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetCall(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"call_id": id,
		"events":  h.store.ListEvents(id),
	})
}

func (h *Handlers) HandleTranscript(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetCall(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"call_id":    id,
		"transcript": h.store.Transcript(id),
	})
}

type loanApplication struct {
	LegalName         string  `json:"legal_name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	ZipCode           string  `json:"zip_code"`
	DOB               string  `json:"dob"`
	SSNLast4          string  `json:"ssn_last4"`
	MonthlyIncome     float64 `json:"monthly_income"`
	RequestedAmount   float64 `json:"requested_loan_amount"`
	LoanDurationYears int     `json:"loan_duration_years"`
	Purpose           string  `json:"purpose_of_loan"`
	TermsConsent      bool    `json:"terms_consent"`
}

var (
	zipRe = regexp.MustCompile(`^\d{5}$`)
	ssnRe = regexp.MustCompile(`^\d{4}$`)
	dobRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func (a loanApplication) validate() error {
	switch {
	case strings.TrimSpace(a.LegalName) == "":
		return fmt.Errorf("legal_name is required")
	case !strings.Contains(a.Email, "@"):
		return fmt.Errorf("email is invalid")
	case !zipRe.MatchString(a.ZipCode):
		return fmt.Errorf("zip_code must be 5 digits")
	case !ssnRe.MatchString(a.SSNLast4):
		return fmt.Errorf("ssn_last4 must be 4 digits")
	case !dobRe.MatchString(a.DOB):
		return fmt.Errorf("dob must be YYYY-MM-DD")
	case a.MonthlyIncome <= 0:
		return fmt.Errorf("monthly_income must be positive")
	case a.RequestedAmount <= 0:
		return fmt.Errorf("requested_loan_amount must be positive")
	case a.LoanDurationYears < 1 || a.LoanDurationYears > 30:
		return fmt.Errorf("loan_duration_years must be between 1 and 30")
	case !a.TermsConsent:
		return fmt.Errorf("terms_consent must be accepted")
	}
	return nil
}

// HandleLoanApplication runs the full pre-approval pipeline for a submitted
// web application: validate, score, evaluate, route, notify.
func (h *Handlers) HandleLoanApplication(w http.ResponseWriter, r *http.Request) {
	var app loanApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	if err := app.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	rec := decision.ApplicationRecord{
		ApplicationID:     fmt.Sprintf("APP-%06d", h.appSeq.Add(1)),
		LegalName:         strings.TrimSpace(app.LegalName),
		Email:             app.Email,
		Phone:             app.Phone,
		ZipCode:           app.ZipCode,
		DOB:               app.DOB,
		SSNLast4:          app.SSNLast4,
		MonthlyIncome:     app.MonthlyIncome,
		RequestedAmount:   app.RequestedAmount,
		LoanDurationYears: app.LoanDurationYears,
		Purpose:           app.Purpose,
		TermsConsent:      app.TermsConsent,
	}
	// Straight-line affordability figures; advisory input to the rules
	// engine, not an offer.
	rec.EstimatedMonthlyPayment = rec.RequestedAmount / float64(rec.LoanDurationYears*12)
	rec.DebtToIncomeRatio = rec.EstimatedMonthlyPayment / rec.MonthlyIncome

	score, fromBureau := h.credit.Score(r.Context(), rec.SSNLast4, rec.DOB)
	rec.CreditScore = score

	res := h.evaluator.Evaluate(r.Context(), rec)
	out := decision.Decide(res, rec)
	log.Printf("[api] application %s outcome=%s reason=%s bureau=%v", rec.ApplicationID, out.Kind, out.Reason, fromBureau)

	emailSent := true
	if err := h.mailer.SendDecision(r.Context(), rec, res, out); err != nil {
		// The decision stands even when the notification fails.
		log.Printf("[api] decision email %s: %v", rec.ApplicationID, err)
		emailSent = false
	}

	body := map[string]any{
		"application_id":            rec.ApplicationID,
		"status":                    string(out.Kind),
		"requires_review":           res.RequiresReview || out.Kind == decision.Escalated,
		"estimated_monthly_payment": round2(rec.EstimatedMonthlyPayment),
		"debt_to_income_ratio":      round2(rec.DebtToIncomeRatio),
		"email_sent":                emailSent,
	}
	if out.Kind == decision.AutoApprove {
		body["provisional_amount"] = res.ProvisionalAmount
		body["interest_rate_range"] = map[string]float64{"min": res.RateMin, "max": res.RateMax}
		body["risk_level"] = string(res.RiskLevel)
	}
	if out.Reason != "" {
		body["reason"] = out.Reason
	}
	writeJSON(w, http.StatusOK, body)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
