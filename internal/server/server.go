package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/veredix/lead-relay/internal/config"
	mongodoc "github.com/veredix/lead-relay/internal/infrastructure/mongo"
	"github.com/veredix/lead-relay/internal/infrastructure/orchestrator"
	"github.com/veredix/lead-relay/internal/infrastructure/whatsapp"
	adminhttp "github.com/veredix/lead-relay/internal/interfaces/http/admin"
	commonhttp "github.com/veredix/lead-relay/internal/interfaces/http/common"
	publichttp "github.com/veredix/lead-relay/internal/interfaces/http/public"
	intakeapp "github.com/veredix/lead-relay/internal/intake/application"
	notifapp "github.com/veredix/lead-relay/internal/notification/application"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// Transport is the outbound WhatsApp channel picked at startup. Both the
// HTTP gateway and the in-process whatsmeow client satisfy it.
type Transport interface {
	notifapp.MessageSender
	whatsapp.StatusReporter
}

// Server manages the HTTP lifecycle and injects application services
// into the public and admin handlers. It is the composition root: all
// repository and service wiring happens in New, nothing else constructs
// dependencies.
type Server struct {
	logger         *log.Logger
	client         *mongo.Client
	database       *mongo.Database
	dispatcher     notifapp.Dispatcher
	intake         intakeapp.IntakeService
	transport      Transport
	failures       notifapp.FailureArchive
	location       *time.Location
	jwtConfig      config.JWTConfig
	jwtAudience    string
	webhookSecret  []byte
	addr           string
	allowedOrigins []string
}

type authenticatedUser = commonhttp.AuthenticatedUser

// Run starts the HTTP server and assembles routing and middleware. It
// blocks until the process is told to stop and disconnects Mongo on the
// way out.
func (s *Server) Run() error {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:        s.logger,
		Intake:        s.intake,
		Dispatcher:    s.dispatcher,
		Transport:     s.transport,
		WebhookSecret: s.webhookSecret,
	})
	publicHandler.Register(router)

	adminHandler := adminhttp.NewHandler(adminhttp.Config{
		Logger:     s.logger,
		Dispatcher: s.dispatcher,
		Sender:     s.transport,
		Failures:   s.failures,
	})
	router.Route("/admin", func(r chi.Router) {
		adminHandler.Register(r, s.authMiddleware)
	})

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	return nil
}

// withCORS grants the configured origins access, answering preflights
// directly.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Hub-Signature-256")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler answers monitoring probes with the Mongo connection
// state. Infrastructure status only, no domain data.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// authMiddleware validates the bearer JWT and stores the admin identity
// in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			commonhttp.WriteJSON(s.logger, w, http.StatusUnauthorized, map[string]string{"error": "missing Authorization header"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			commonhttp.WriteJSON(s.logger, w, http.StatusUnauthorized, map[string]string{"error": "a Bearer token is required"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			commonhttp.WriteJSON(s.logger, w, http.StatusUnauthorized, map[string]string{"error": "access token is empty"})
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		user := authenticatedUser{
			ID:   claims.Subject,
			Name: claims.Name,
		}

		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthToken verifies the HS256 signature and the issuer/audience
// claims against the admin JWT configuration.
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfig.Secret) == 0 {
		return nil, fmt.Errorf("admin authentication is not configured")
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.jwtConfig.Secret, nil
	}, jwt.WithLeeway(30*time.Second))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("access token is invalid")
	}
	if s.jwtConfig.Issuer != "" && claims.Issuer != s.jwtConfig.Issuer {
		return nil, fmt.Errorf("access token is invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("access token is invalid")
	}
	if s.jwtAudience != "" && !contains(claims.Audience, s.jwtAudience) {
		return nil, fmt.Errorf("access token is invalid")
	}

	return claims, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

type authClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// shutdown disconnects the Mongo client with a timeout so process exit
// does not leak connections.
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("error disconnecting MongoDB: %v", err)
	}
}

// waitForShutdown watches ListenAndServe and OS signals and drives the
// graceful stop.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("server stopped unexpectedly: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("received signal %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("error during server shutdown: %v", err)
		}
	}

	srv.shutdown(context.Background())
}

// New wires repositories, the dispatcher, the intake pipeline and the
// HTTP handlers around the given Mongo client and transport.
func New(cfg config.Config, client *mongo.Client, transport Transport) *Server {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
		cfg.ServerLog.Printf("failed to load timezone %s: %v, using BRT", cfg.Timezone, err)
	}

	srv := &Server{
		logger:         cfg.ServerLog,
		client:         client,
		database:       client.Database(cfg.MongoDatabase),
		transport:      transport,
		location:       loc,
		jwtConfig:      cfg.JWT,
		jwtAudience:    cfg.JWTAudience,
		webhookSecret:  append([]byte(nil), cfg.WebhookSecret...),
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}

	leadRepo := mongodoc.NewLeadRepository(srv.database, cfg.LeadsCollection)
	intakeRepo := mongodoc.NewIntakeLeadRepository(srv.database, cfg.LeadsCollection)
	failureRepo := mongodoc.NewFailureRepository(srv.database, cfg.FailedCollection)
	srv.failures = failureRepo

	directory := notifapp.NewStaticDirectory(domainRecipients(cfg.Recipients))
	srv.dispatcher = notifapp.NewDispatcher(leadRepo, transport, directory, failureRepo, notifapp.Settings{
		Enabled:  cfg.NotificationsEnabled,
		Location: loc,
	}, cfg.ServerLog)

	orch := orchestrator.New(cfg.OrchestratorURL, cfg.OrchestratorTimeout, cfg.ServerLog)
	srv.intake = intakeapp.NewIntakeService(intakeRepo, orch, srv.dispatcher, cfg.ServerLog)

	return srv
}

func domainRecipients(recipients []config.Recipient) []notifdomain.Recipient {
	out := make([]notifdomain.Recipient, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, notifdomain.Recipient{Name: r.Name, Phone: r.Phone})
	}
	return out
}
