package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/engine"
)

var servePort int

type researchRequest struct {
	Question            string   `json:"question"`
	Complexity          string   `json:"complexity,omitempty"`
	Focus               string   `json:"focus,omitempty"`
	Models              []string `json:"models,omitempty"`
	Sequential          bool     `json:"sequential,omitempty"`
	Temperature         float64  `json:"temperature,omitempty"`
	TimeoutSecs         int      `json:"timeout_secs,omitempty"`
	EarlyExitConfidence float64  `json:"early_exit_confidence,omitempty"`
	IncludeMetadata     bool     `json:"include_metadata,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP research API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := buildRouter(newEngine(), cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeoutS)*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the API routes over a ready engine.
func buildRouter(eng *engine.Engine, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/research", func(w http.ResponseWriter, r *http.Request) {
		var req researchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		rep, err := eng.Research(r.Context(), engine.Request{
			Question:            req.Question,
			Complexity:          catalog.Complexity(req.Complexity),
			Focus:               catalog.Focus(req.Focus),
			Models:              req.Models,
			Sequential:          req.Sequential,
			Temperature:         req.Temperature,
			Timeout:             time.Duration(req.TimeoutSecs) * time.Second,
			EarlyExitConfidence: req.EarlyExitConfidence,
			IncludeMetadata:     req.IncludeMetadata,
		})
		if err != nil {
			status := statusForError(err)
			zap.L().Warn("research request failed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Int("status", status),
				zap.Error(err),
			)
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})

	return r
}

func statusForError(err error) int {
	var verr *engine.ValidationError
	var adm *engine.AdmissionError
	var failed *engine.AllModelsFailedError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &adm):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrNoCompatibleModels):
		return http.StatusUnprocessableEntity
	case errors.As(err, &failed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
