package admin

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	notifapp "github.com/veredix/lead-relay/internal/notification/application"
)

// Handler wires admin HTTP endpoints to application services. Everything
// registered here sits behind the JWT middleware.
type Handler struct {
	logger     *log.Logger
	dispatcher notifapp.Dispatcher
	sender     notifapp.MessageSender
	failures   notifapp.FailureArchive
}

// Config provides dependencies for Handler.
type Config struct {
	Logger     *log.Logger
	Dispatcher notifapp.Dispatcher
	Sender     notifapp.MessageSender
	Failures   notifapp.FailureArchive
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:     cfg.Logger,
		dispatcher: cfg.Dispatcher,
		sender:     cfg.Sender,
		failures:   cfg.Failures,
	}
}

// Register mounts admin routes onto router behind authMiddleware.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Post("/leads/{leadID}/notify", h.leadNotifyHandler())
	r.Post("/leads/{leadID}/notification/reset", h.leadNotificationResetHandler())
	r.Post("/messages", h.messageSendHandler())
	r.Get("/failed-dispatches", h.failedDispatchListHandler())
	r.Get("/auth/verify", h.authVerifyHandler())
}
