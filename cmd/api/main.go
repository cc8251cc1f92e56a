package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veredix/lead-relay/internal/config"
	"github.com/veredix/lead-relay/internal/infrastructure/whatsapp"
	"github.com/veredix/lead-relay/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		cfg.ServerLog.Fatalf("failed to connect to MongoDB: %v", err)
	}

	// Transport setup gets a background context: first-run whatsmeow
	// pairing waits for a QR scan and must not race the connect timeout.
	transport, cleanup, err := buildTransport(context.Background(), cfg)
	if err != nil {
		cfg.ServerLog.Fatalf("failed to set up WhatsApp transport: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	app := server.New(cfg, client, transport)
	if err := app.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func buildTransport(ctx context.Context, cfg config.Config) (server.Transport, func(), error) {
	if cfg.Transport == config.TransportWhatsmeow {
		meow, err := whatsapp.NewMeow(ctx, cfg.WhatsmeowStorePath, cfg.ServerLog)
		if err != nil {
			return nil, nil, err
		}
		if err := meow.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return meow, meow.Close, nil
	}

	gateway := whatsapp.NewGateway(whatsapp.GatewayConfig{
		Endpoint:   cfg.GatewayURL,
		Timeout:    cfg.GatewayTimeout,
		Attempts:   cfg.SendAttempts,
		RetryDelay: cfg.SendRetryDelay,
	}, cfg.ServerLog)
	return gateway, nil, nil
}
