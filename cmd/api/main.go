package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/infrastructure/dynamo"
	"github.com/authcore-api/internal/infrastructure/google"
	jwtinfra "github.com/authcore-api/internal/infrastructure/jwt"
	"github.com/authcore-api/internal/infrastructure/smtp"
	"github.com/authcore-api/internal/infrastructure/sns"
	"github.com/authcore-api/internal/infrastructure/throttle"
	transporthttp "github.com/authcore-api/internal/transport/http"
	"github.com/authcore-api/internal/transport/http/handler"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider signs and verifies session tokens; without keys the API
	// cannot mint sessions, so missing keys are fatal.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// Redis-backed issuance cooldown and mismatch caps. Without Redis the
	// limiter is nil and every check passes.
	var limiter *throttle.Limiter
	if cfg.RedisURL != "" {
		if client, err := throttle.NewClient(context.Background(), cfg.RedisURL); err == nil {
			limiter = throttle.NewLimiter(client, cfg.Throttle)
		} else {
			log.Printf("WARN: redis not available, throttling disabled: %v", err)
		}
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender, optional: the phone channel stays configured but
	// deliveries fail until SNS credentials are present.
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	oauthVerifiers := map[string]handler.ProfileVerifier{}
	if cfg.GoogleClientID != "" {
		oauthVerifiers["google"] = google.NewVerifier(cfg.GoogleClientID)
	}

	deps := &transporthttp.Deps{
		ArtifactRepo:   dynamo.NewArtifactRepo(dynamoClient, cfg.DynamoTables.Artifacts),
		UserRepo:       dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.Identities),
		Mailer:         mailer,
		SMSSender:      smsSender,
		JWTProvider:    jwtProvider,
		Limiter:        limiter,
		OAuthVerifiers: oauthVerifiers,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
