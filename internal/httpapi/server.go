package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/ingestion"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/usecase"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP surface of the attendance engine: the gateway webhook
// plus the agent-facing API.
type Server struct {
	httpServer  *http.Server
	service     *usecase.AttendanceService
	eventRouter ingestion.RouterInterface
	store       Pinger
	webhookURL  string
}

// NewServer wires the routes and returns a server ready to listen.
// webhookURL is the public address of this service, registered on every
// instance provisioned through the API.
func NewServer(port int, service *usecase.AttendanceService, eventRouter ingestion.RouterInterface, store Pinger, webhookURL string) *Server {
	s := &Server{
		service:     service,
		eventRouter: eventRouter,
		store:       store,
		webhookURL:  webhookURL,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// The gateway posts both with and without the event name in the path.
	r.Post("/webhook", s.handleWebhook)
	r.Post("/webhook/{event}", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireAgentHeader)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", s.handleListConversations)
			r.Get("/{conversationID}", s.handleGetConversation)
			r.Get("/{conversationID}/messages", s.handleListMessages)
			r.Post("/{conversationID}/messages", s.handleSendText)
			r.Post("/{conversationID}/media", s.handleSendMedia)
			r.Post("/{conversationID}/transfer", s.handleTransfer)
			r.Post("/{conversationID}/close", s.handleClose)
			r.Post("/{conversationID}/reopen", s.handleReopen)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", s.handleListContacts)
			r.Get("/{contactID}", s.handleGetContact)
			r.Patch("/{contactID}", s.handleRenameContact)
		})

		r.Route("/chatbot/config", func(r chi.Router) {
			r.Get("/", s.handleGetChatbotConfig)
			r.Put("/", s.handleUpdateChatbotConfig)
		})

		r.Route("/quick-replies", func(r chi.Router) {
			r.Get("/", s.handleListQuickReplies)
			r.Post("/", s.handleCreateQuickReply)
			r.Delete("/{id}", s.handleDeleteQuickReply)
		})

		r.Route("/classifications", func(r chi.Router) {
			r.Get("/", s.handleListClassifications)
			r.Post("/", s.handleCreateClassification)
			r.Delete("/{id}", s.handleDeactivateClassification)
		})

		r.Get("/teams", s.handleListTeams)

		r.Route("/instances", func(r chi.Router) {
			r.Get("/", s.handleListInstances)
			r.Post("/", s.handleProvisionInstance)
			r.Get("/{instanceName}", s.handleGetInstanceStatus)
			r.Post("/{instanceName}/connect", s.handleConnectInstance)
			r.Post("/{instanceName}/restart", s.handleRestartInstance)
			r.Post("/{instanceName}/logout", s.handleLogoutInstance)
			r.Delete("/{instanceName}", s.handleRemoveInstance)
		})
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	logger.Log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   utils.FormatISO8601(utils.Now()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
