package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/api"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/applink"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/credit"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/decision"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/dialog"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/health"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/response"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/session"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/store"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/stt"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/transport"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/tts"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	checkOnly := flag.Bool("check", false, "probe external providers and exit")
	flag.Parse()

	cfg := config.Load()

	if *checkOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status := health.CheckAll(ctx, cfg)
		fmt.Print(status.String())
		if !status.OK {
			os.Exit(1)
		}
		return
	}

	st := store.New()
	mailer := applink.NewMailer(cfg)
	h := api.NewHandlers(cfg, st, decision.NewEvaluator(cfg), credit.NewClient(cfg), mailer)

	var synth tts.Synthesizer = tts.NewElevenLabs(cfg)
	if cfg.Eleven.APIKey == "" {
		log.Printf("no ElevenLabs key; using silence synthesizer")
		synth = tts.NewMockSynthesizer()
	}
	var gen response.Generator = response.NewOpenAIGenerator(cfg)
	if cfg.OpenAI.APIKey == "" {
		log.Printf("no OpenAI key; using canned responses")
		gen = response.StaticGenerator{}
	}

	// Active calls, so shutdown can hang them up.
	var (
		sessMu  sync.Mutex
		cancels = map[string]context.CancelFunc{}
	)

	h.RunSession = func(ctx context.Context, callID string, conn *transport.Conn) {
		ctx, cancel := context.WithCancel(ctx)
		sessMu.Lock()
		cancels[callID] = cancel
		sessMu.Unlock()
		defer func() {
			cancel()
			sessMu.Lock()
			delete(cancels, callID)
			sessMu.Unlock()
		}()

		s := session.New(callID, conn, session.Deps{
			Store:      st,
			Recognizer: stt.NewDeepgramRecognizer(ctx, callID, cfg),
			Synth:      synth,
			Generator:  gen,
			SendLink: func(ctx context.Context, callID string, slots dialog.Slots) error {
				link := applink.BuildLink(cfg.Server.BaseURL, slots.Name, slots.Phone, slots.Zip)
				log.Printf("application link for call=%s: %s", callID, link)
				st.AppendEvent(callID, "link_built", map[string]any{"url": link})
				return nil
			},
			Company:    cfg.Server.CompanyName,
			MaxRetries: cfg.Dialog.MaxRetries,
		})
		if err := s.Run(ctx); err != nil {
			log.Printf("session call=%s: %v", callID, err)
		}
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(api.NewRouter(h)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		// Hang up live calls before draining HTTP
		sessMu.Lock()
		for id, cancel := range cancels {
			log.Printf("hanging up call=%s", id)
			cancel()
		}
		sessMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
