package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string
		LogLevel    string
		BaseURL     string
		StreamURL   string
		CompanyName string
	}
	Deepgram struct {
		APIKey        string
		Model         string
		Language      string
		EndpointingMs int
		UtterEndMs    int
		BaseURL       string
	}
	OpenAI struct {
		APIKey      string
		Model       string
		TimeoutSec  int
		MaxInFlight int
	}
	Eleven struct {
		APIKey  string
		VoiceID string
		Model   string
		BaseURL string
	}
	Rules struct {
		APIKey      string
		RuleID      string
		Host        string
		TimeoutSec  int
		MaxInFlight int
	}
	Credit struct {
		APIURL       string
		TimeoutSec   int
		DefaultScore int
	}
	Mail struct {
		APIKey    string
		FromEmail string
		FromName  string
		APIURL    string
		LinkTTLHr int
	}
	Dialog struct {
		MaxRetries int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.company_name", "Quick Pre-Approval")

	v.SetDefault("deepgram.model", "nova-2-general")
	v.SetDefault("deepgram.language", "multi")
	v.SetDefault("deepgram.endpointing_ms", 1000)
	v.SetDefault("deepgram.utter_end_ms", 1500)

	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.timeout_sec", 10)
	v.SetDefault("openai.max_in_flight", 8)

	v.SetDefault("elevenlabs.model", "eleven_multilingual_v2")

	v.SetDefault("rules.host", "https://api.decisionrules.io")
	v.SetDefault("rules.timeout_sec", 20)
	v.SetDefault("rules.max_in_flight", 4)

	v.SetDefault("credit.api_url", "https://mock-credit-bureau.local/credit-score")
	v.SetDefault("credit.timeout_sec", 5)
	v.SetDefault("credit.default_score", 680)

	v.SetDefault("mail.from_email", "loans@yourcompany.com")
	v.SetDefault("mail.from_name", "Loan Pre-Approval Service")
	v.SetDefault("mail.api_url", "https://api.mailersend.com/v1/email")
	v.SetDefault("mail.link_ttl_hr", 24)

	v.SetDefault("dialog.max_retries", 3)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.base_url", "BASE_URL")
	v.BindEnv("server.stream_url", "WEBSOCKET_URL")
	v.BindEnv("server.company_name", "COMPANY_NAME")

	v.BindEnv("deepgram.api_key", "DEEPGRAM_API_KEY")
	v.BindEnv("deepgram.model", "DEEPGRAM_MODEL")
	v.BindEnv("deepgram.language", "DEEPGRAM_LANGUAGE")
	v.BindEnv("deepgram.endpointing_ms", "DEEPGRAM_ENDPOINTING_MS")
	v.BindEnv("deepgram.utter_end_ms", "DEEPGRAM_UTTERANCE_END_MS")
	v.BindEnv("deepgram.base_url", "DEEPGRAM_WS_URL")

	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "OPENAI_MODEL")
	v.BindEnv("openai.timeout_sec", "OPENAI_TIMEOUT_SEC")
	v.BindEnv("openai.max_in_flight", "OPENAI_MAX_IN_FLIGHT")

	v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	v.BindEnv("elevenlabs.voice_id", "ELEVENLABS_VOICE_ID")
	v.BindEnv("elevenlabs.model", "ELEVENLABS_MODEL")
	v.BindEnv("elevenlabs.base_url", "ELEVENLABS_BASE_URL")

	v.BindEnv("rules.api_key", "DECISION_RULES_API_KEY")
	v.BindEnv("rules.rule_id", "DECISION_RULES_RULE_ID")
	v.BindEnv("rules.host", "DECISION_RULES_HOST")
	v.BindEnv("rules.timeout_sec", "DECISION_RULES_TIMEOUT_SEC")
	v.BindEnv("rules.max_in_flight", "DECISION_RULES_MAX_IN_FLIGHT")

	v.BindEnv("credit.api_url", "CREDIT_SCORE_API_URL")
	v.BindEnv("credit.timeout_sec", "CREDIT_SCORE_TIMEOUT_SEC")
	v.BindEnv("credit.default_score", "CREDIT_SCORE_DEFAULT")

	v.BindEnv("mail.api_key", "MAILERSEND_API_KEY")
	v.BindEnv("mail.from_email", "MAILERSEND_FROM_EMAIL")
	v.BindEnv("mail.from_name", "MAILERSEND_FROM_NAME")
	v.BindEnv("mail.api_url", "MAILERSEND_API_URL")
	v.BindEnv("mail.link_ttl_hr", "APPLICATION_LINK_TTL_HOURS")

	v.BindEnv("dialog.max_retries", "DIALOG_MAX_RETRIES")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.BaseURL = v.GetString("server.base_url")
	c.Server.StreamURL = v.GetString("server.stream_url")
	c.Server.CompanyName = v.GetString("server.company_name")

	c.Deepgram.APIKey = v.GetString("deepgram.api_key")
	c.Deepgram.Model = v.GetString("deepgram.model")
	c.Deepgram.Language = v.GetString("deepgram.language")
	c.Deepgram.EndpointingMs = v.GetInt("deepgram.endpointing_ms")
	c.Deepgram.UtterEndMs = v.GetInt("deepgram.utter_end_ms")
	c.Deepgram.BaseURL = v.GetString("deepgram.base_url")

	c.OpenAI.APIKey = v.GetString("openai.api_key")
	c.OpenAI.Model = v.GetString("openai.model")
	c.OpenAI.TimeoutSec = v.GetInt("openai.timeout_sec")
	c.OpenAI.MaxInFlight = v.GetInt("openai.max_in_flight")

	c.Eleven.APIKey = v.GetString("elevenlabs.api_key")
	c.Eleven.VoiceID = v.GetString("elevenlabs.voice_id")
	c.Eleven.Model = v.GetString("elevenlabs.model")
	c.Eleven.BaseURL = v.GetString("elevenlabs.base_url")

	c.Rules.APIKey = v.GetString("rules.api_key")
	c.Rules.RuleID = v.GetString("rules.rule_id")
	c.Rules.Host = v.GetString("rules.host")
	c.Rules.TimeoutSec = v.GetInt("rules.timeout_sec")
	c.Rules.MaxInFlight = v.GetInt("rules.max_in_flight")

	c.Credit.APIURL = v.GetString("credit.api_url")
	c.Credit.TimeoutSec = v.GetInt("credit.timeout_sec")
	c.Credit.DefaultScore = v.GetInt("credit.default_score")

	c.Mail.APIKey = v.GetString("mail.api_key")
	c.Mail.FromEmail = v.GetString("mail.from_email")
	c.Mail.FromName = v.GetString("mail.from_name")
	c.Mail.APIURL = v.GetString("mail.api_url")
	c.Mail.LinkTTLHr = v.GetInt("mail.link_ttl_hr")

	c.Dialog.MaxRetries = v.GetInt("dialog.max_retries")

	log.Printf("config loaded: port=%s rules_host=%s", c.Server.Port, c.Rules.Host)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
