package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/applink"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/credit"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/decision"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/store"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

type backend struct {
	rules  http.HandlerFunc
	bureau http.HandlerFunc
	mail   http.HandlerFunc
}

func testRouter(t *testing.T, b backend, st *store.Store) http.Handler {
	t.Helper()
	if b.rules == nil {
		b.rules = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"approved": true, "risk_level": "low", "provisional_amount": 10000,
				"interest_rate_range": {"min": 7, "max": 11}}`))
		}
	}
	if b.bureau == nil {
		b.bureau = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"credit_score": 720}`))
		}
	}
	if b.mail == nil {
		b.mail = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) }
	}
	rulesSrv := httptest.NewServer(b.rules)
	bureauSrv := httptest.NewServer(b.bureau)
	mailSrv := httptest.NewServer(b.mail)
	t.Cleanup(rulesSrv.Close)
	t.Cleanup(bureauSrv.Close)
	t.Cleanup(mailSrv.Close)

	cfg := config.Config{}
	cfg.Server.CompanyName = "Acme Lending"
	cfg.Rules.APIKey = "rk"
	cfg.Rules.RuleID = "r1"
	cfg.Rules.Host = rulesSrv.URL
	cfg.Rules.TimeoutSec = 2
	cfg.Credit.APIURL = bureauSrv.URL
	cfg.Credit.TimeoutSec = 2
	cfg.Credit.DefaultScore = 680
	cfg.Mail.APIKey = "mk"
	cfg.Mail.APIURL = mailSrv.URL

	if st == nil {
		st = store.New()
	}
	h := NewHandlers(cfg, st, decision.NewEvaluator(cfg), credit.NewClient(cfg), applink.NewMailer(cfg))
	return NewRouter(h)
}

func validApplication() string {
	return `{
		"legal_name": "Jane Doe",
		"email": "jane@example.com",
		"phone": "5551234567",
		"zip_code": "90210",
		"dob": "1990-04-12",
		"ssn_last4": "1234",
		"monthly_income": 6000,
		"requested_loan_amount": 15000,
		"loan_duration_years": 3,
		"purpose_of_loan": "home improvement",
		"terms_consent": true
	}`
}

func TestVoiceWebhookReturnsStreamTwiML(t *testing.T) {
	router := testRouter(t, backend{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Host = "voice.example.com"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `<Stream url="wss://voice.example.com/ws" />`) {
		t.Fatalf("twiml %q", rr.Body.String())
	}
}

func TestVoiceWebhookHonorsStreamURLOverride(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.StreamURL = "wss://tunnel.example.com/ws"
	h := NewHandlers(cfg, store.New(), nil, nil, nil)
	rr := httptest.NewRecorder()
	h.HandleVoice(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if !strings.Contains(rr.Body.String(), "wss://tunnel.example.com/ws") {
		t.Fatalf("override not applied: %q", rr.Body.String())
	}
}

func TestLoanApplicationApproved(t *testing.T) {
	router := testRouter(t, backend{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/loan-application", strings.NewReader(validApplication()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "auto_approve" {
		t.Fatalf("status %v", resp["status"])
	}
	if id, _ := resp["application_id"].(string); !strings.HasPrefix(id, "APP-") || len(id) != 10 {
		t.Fatalf("application_id %v", resp["application_id"])
	}
	if resp["provisional_amount"].(float64) != 10000 {
		t.Fatalf("provisional_amount %v", resp["provisional_amount"])
	}
	if resp["requires_review"].(bool) {
		t.Fatalf("approved application marked for review")
	}
	if resp["estimated_monthly_payment"].(float64) <= 0 {
		t.Fatalf("payment missing: %v", resp)
	}
}

func TestLoanApplicationEscalatesWhenRulesDown(t *testing.T) {
	router := testRouter(t, backend{
		rules: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/loan-application", strings.NewReader(validApplication()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var resp map[string]any
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "escalate" || resp["requires_review"] != true {
		t.Fatalf("expected escalation, got %v", resp)
	}
}

func TestLoanApplicationValidation(t *testing.T) {
	router := testRouter(t, backend{}, nil)
	cases := []struct {
		name string
		mut  func(m map[string]any)
	}{
		{"no consent", func(m map[string]any) { m["terms_consent"] = false }},
		{"bad zip", func(m map[string]any) { m["zip_code"] = "9021" }},
		{"bad ssn", func(m map[string]any) { m["ssn_last4"] = "12a4" }},
		{"bad email", func(m map[string]any) { m["email"] = "nope" }},
		{"zero income", func(m map[string]any) { m["monthly_income"] = 0 }},
		{"term too long", func(m map[string]any) { m["loan_duration_years"] = 40 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m map[string]any
			json.Unmarshal([]byte(validApplication()), &m)
			tc.mut(m)
			body, _ := json.Marshal(m)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/loan-application", strings.NewReader(string(body))))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestListEventsAndTranscript(t *testing.T) {
	st := store.New()
	st.CreateCall(&types.Call{ID: "c1"})
	st.AppendEvent("c1", "session_started", nil)
	st.AppendUtterance("c1", types.Utterance{Role: types.RoleCaller, Text: "hello"})
	router := testRouter(t, backend{}, st)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/calls/c1/events", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "session_started") {
		t.Fatalf("events: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/calls/c1/transcript", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "hello") {
		t.Fatalf("transcript: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/calls/unknown/events", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, backend{}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}
