package public

import (
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/veredix/lead-relay/internal/infrastructure/whatsapp"
	intakeapp "github.com/veredix/lead-relay/internal/intake/application"
	notifapp "github.com/veredix/lead-relay/internal/notification/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger        *log.Logger
	intake        intakeapp.IntakeService
	dispatcher    notifapp.Dispatcher
	transport     whatsapp.StatusReporter
	webhookSecret []byte
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger        *log.Logger
	Intake        intakeapp.IntakeService
	Dispatcher    notifapp.Dispatcher
	Transport     whatsapp.StatusReporter
	WebhookSecret []byte
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:        cfg.Logger,
		intake:        cfg.Intake,
		dispatcher:    cfg.Dispatcher,
		transport:     cfg.Transport,
		webhookSecret: cfg.WebhookSecret,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/whatsapp/webhook", h.webhookHandler())
	r.Get("/whatsapp/status", h.statusHandler())
	r.Post("/chat/messages", h.chatMessageHandler())
	r.Post("/leads", h.leadCreateHandler())
	r.Get("/leads/{leadID}/notification", h.leadNotificationStatusHandler())
}
