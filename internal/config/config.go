package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport selection for outbound WhatsApp messages.
const (
	TransportGateway   = "gateway"
	TransportWhatsmeow = "whatsmeow"
)

// JWTConfig defines the issuer/secret pair for admin auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Recipient is one staff alert target parsed from NOTIFY_RECIPIENTS.
type Recipient struct {
	Name  string
	Phone string
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr             string
	MongoURI         string
	MongoDatabase    string
	LeadsCollection  string
	FailedCollection string
	ConnectTimeout   time.Duration
	Timezone         string
	ServerLog        *log.Logger

	NotificationsEnabled bool
	Recipients           []Recipient

	OrchestratorURL     string
	OrchestratorTimeout time.Duration

	Transport          string
	GatewayURL         string
	GatewayTimeout     time.Duration
	SendAttempts       int
	SendRetryDelay     time.Duration
	WhatsmeowStorePath string

	WebhookSecret []byte

	JWT         JWTConfig
	JWTAudience string

	AllowedOrigins []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	serverLog := log.New(os.Stdout, "[lead-relay-api] ", log.LstdFlags|log.Lshortfile)

	adminSecret := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET"))
	if adminSecret == "" {
		log.Fatal("ADMIN_JWT_SECRET must be configured")
	}

	transport := strings.ToLower(strings.TrimSpace(os.Getenv("WHATSAPP_TRANSPORT")))
	switch transport {
	case "", TransportGateway:
		transport = TransportGateway
	case TransportWhatsmeow:
	default:
		serverLog.Printf("unknown WHATSAPP_TRANSPORT %q, using %s", transport, TransportGateway)
		transport = TransportGateway
	}

	recipients := parseRecipients(os.Getenv("NOTIFY_RECIPIENTS"))
	if len(recipients) == 0 {
		serverLog.Printf("NOTIFY_RECIPIENTS is empty, lead alerts have nowhere to go")
	}

	cfg := Config{
		Addr:             envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:         envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:    envOrDefault("MONGO_DB", "lead_relay"),
		LeadsCollection:  envOrDefault("LEADS_COLLECTION", "leads"),
		FailedCollection: envOrDefault("FAILED_COLLECTION", "failed_notifications"),
		ConnectTimeout:   envDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		Timezone:         envOrDefault("TIMEZONE", "America/Sao_Paulo"),
		ServerLog:        serverLog,

		NotificationsEnabled: envBool("NOTIFICATIONS_ENABLED", true),
		Recipients:           recipients,

		OrchestratorURL:     envOrDefault("ORCHESTRATOR_URL", "http://orchestrator:8000"),
		OrchestratorTimeout: envDuration("ORCHESTRATOR_TIMEOUT", 15*time.Second),

		Transport:          transport,
		GatewayURL:         envOrDefault("WHATSAPP_GATEWAY_URL", "http://whatsapp-gateway:3000"),
		GatewayTimeout:     envDuration("WHATSAPP_GATEWAY_TIMEOUT", 10*time.Second),
		SendAttempts:       envInt("WHATSAPP_SEND_ATTEMPTS", 3),
		SendRetryDelay:     envDuration("WHATSAPP_SEND_RETRY_DELAY", 500*time.Millisecond),
		WhatsmeowStorePath: envOrDefault("WHATSAPP_STORE_PATH", "whatsmeow.db"),

		JWT: JWTConfig{
			Issuer: envOrDefault("ADMIN_JWT_ISSUER", "lead-relay-auth"),
			Secret: []byte(adminSecret),
		},
		JWTAudience: strings.TrimSpace(os.Getenv("ADMIN_JWT_AUDIENCE")),

		AllowedOrigins: parseList("ALLOWED_ORIGINS", []string{"*"}),
	}

	if secret := strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")); secret != "" {
		cfg.WebhookSecret = []byte(secret)
	}

	cfg.ServerLog.Printf("loaded config: transport=%s orchestrator=%q recipients=%d notificationsEnabled=%t",
		cfg.Transport, cfg.OrchestratorURL, len(cfg.Recipients), cfg.NotificationsEnabled)

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}

// parseRecipients understands a comma list of Name:phone entries. An
// entry without a name keeps the phone as its display name.
func parseRecipients(raw string) []Recipient {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	recipients := make([]Recipient, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, phone, found := strings.Cut(part, ":")
		if !found {
			phone = part
			name = part
		}
		name = strings.TrimSpace(name)
		phone = strings.TrimSpace(phone)
		if phone == "" {
			continue
		}
		if name == "" {
			name = phone
		}
		recipients = append(recipients, Recipient{Name: name, Phone: phone})
	}
	return recipients
}
