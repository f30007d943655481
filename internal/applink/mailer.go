package applink

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
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/decision"
)

// Mailer sends transactional email through MailerSend.
type Mailer struct {
	apiKey    string
	apiURL    string
	fromEmail string
	fromName  string
	company   string
	client    *http.Client
	gate      chan struct{}
	linkTTL   int

	retryDelay time.Duration
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		apiKey:     cfg.Mail.APIKey,
		apiURL:     cfg.Mail.APIURL,
		fromEmail:  cfg.Mail.FromEmail,
		fromName:   cfg.Mail.FromName,
		company:    cfg.Server.CompanyName,
		linkTTL:    cfg.Mail.LinkTTLHr,
		client:     &http.Client{Timeout: 10 * time.Second},
		gate:       make(chan struct{}, 4),
		retryDelay: time.Second,
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type message struct {
	From    address   `json:"from"`
	To      []address `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
}

// SendDecision emails the applicant the outcome of their application.
// Escalated applications get a "we're reviewing" note rather than a verdict.
func (m *Mailer) SendDecision(ctx context.Context, rec decision.ApplicationRecord, res decision.Result, out decision.Outcome) error {
	var subject, body string
	switch out.Kind {
	case decision.AutoApprove:
		subject = fmt.Sprintf("%s: you're pre-approved", m.company)
		body = fmt.Sprintf(
			"Hi %s,\n\nGood news: your application %s is pre-approved for up to $%.2f "+
				"at an estimated rate between %.2f%% and %.2f%%.\n\n"+
				"This pre-approval is not a final loan offer. We'll be in touch with next steps.\n\n%s",
			rec.LegalName, rec.ApplicationID, res.ProvisionalAmount, res.RateMin, res.RateMax, m.company)
	case decision.AutoDeny:
		subject = fmt.Sprintf("%s: an update on your application", m.company)
		body = fmt.Sprintf(
			"Hi %s,\n\nWe've reviewed application %s and unfortunately we can't offer a "+
				"pre-approval at this time.\n\nYou're welcome to apply again in the future.\n\n%s",
			rec.LegalName, rec.ApplicationID, m.company)
	default:
		subject = fmt.Sprintf("%s: your application is in review", m.company)
		body = fmt.Sprintf(
			"Hi %s,\n\nApplication %s needs a closer look from our team. "+
				"We'll follow up within two business days.\n\n%s",
			rec.LegalName, rec.ApplicationID, m.company)
	}
	return m.send(ctx, rec.Email, rec.LegalName, subject, body)
}

// SendApplicationLink emails the pre-filled application link discussed on
// the call.
func (m *Mailer) SendApplicationLink(ctx context.Context, toEmail, legalName, link string) error {
	subject := fmt.Sprintf("%s: finish your application", m.company)
	text := fmt.Sprintf(
		"Hi %s,\n\nThanks for talking with us. Finish your pre-approval here:\n\n%s\n\n"+
			"This link expires in %d hours.\n\n%s",
		legalName, link, m.linkTTL, m.company)
	return m.send(ctx, toEmail, legalName, subject, text)
}

func (m *Mailer) send(ctx context.Context, toEmail, toName, subject, text string) error {
	if m.apiKey == "" {
		log.Printf("[mail] no api key configured, skipping %q to %s", subject, toEmail)
		return nil
	}
	select {
	case m.gate <- struct{}{}:
		defer func() { <-m.gate }()
	case <-ctx.Done():
		return ctx.Err()
	}
	msg := message{
		From:    address{Email: m.fromEmail, Name: m.fromName},
		To:      []address{{Email: toEmail, Name: toName}},
		Subject: subject,
		Text:    text,
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(m.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		retryable, err := m.post(ctx, msg)
		if err == nil {
			metricEmails.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		log.Printf("[mail] send attempt=%d to=%s: %v", attempt+1, toEmail, err)
		if !retryable {
			break
		}
	}
	metricEmails.WithLabelValues("failed").Inc()
	return lastErr
}

func (m *Mailer) post(ctx context.Context, msg message) (retryable bool, err error) {
	body, _ := json.Marshal(msg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("mailersend status=%d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("mailersend status=%d body=%s", resp.StatusCode, string(b))
	}
	return false, nil
}
