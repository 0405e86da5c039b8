// Package server provides the HTTP trigger surface: start a run, signal
// approval, health checks, and the PIN lock.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veeresh/va-bot/internal/approval"
	"github.com/veeresh/va-bot/internal/config"
	"github.com/veeresh/va-bot/internal/pipeline"
)

// Server is the HTTP front end over the pipeline.
type Server struct {
	httpServer *http.Server
	pipeline   *pipeline.Pipeline
	cfg        *config.Config
	lock       *PinLock
}

// New builds the server and its routes.
func New(cfg *config.Config, p *pipeline.Pipeline) (*Server, error) {
	lock, err := NewPinLock(cfg.AppLockPIN, cfg.AppLockHash)
	if err != nil {
		return nil, err
	}

	s := &Server{pipeline: p, cfg: cfg, lock: lock}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHome)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /send-report", s.handleSendReport)
	mux.HandleFunc("GET /send-report", s.handleSendReport) // manual trigger from a browser
	mux.HandleFunc("GET /approve/{token}", s.handleApprove)
	mux.HandleFunc("GET /unlock", s.handleUnlock)
	mux.HandleFunc("GET /lockout", s.handleLockout)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           lock.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("VA Bot listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "VA Bot is running")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleSendReport triggers one full pipeline cycle. The pipeline
// serializes runs internally, so replayed triggers queue rather than
// overlap.
func (s *Server) handleSendReport(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.pipeline.Run(r.Context(), pipeline.Options{Parallel: true})
	if err != nil {
		log.Printf("send-report failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"detail": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "sent",
		"report_id":   outcome.ReportID,
		"report_date": outcome.DateKey,
		"total":       outcome.Total,
	})
}

// handleApprove resolves the approval reference from the emailed link.
// Unknown or expired references report cleanly; a second click on an
// already-approved link succeeds idempotently.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	reportID, err := s.pipeline.Tokens().Parse(token)
	if err != nil {
		http.Error(w, "Invalid or expired approval link", http.StatusNotFound)
		return
	}

	outcome, err := s.pipeline.Approve(reportID)
	if err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			http.Error(w, "Invalid or expired report id", http.StatusNotFound)
			return
		}
		http.Error(w, "Approval failed", http.StatusInternalServerError)
		return
	}

	switch outcome {
	case approval.OutcomeAlreadyResolved:
		fmt.Fprint(w, "Already resolved")
	default:
		fmt.Fprint(w, "Approved. VA Bot will proceed.")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
