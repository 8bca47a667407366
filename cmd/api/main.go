package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/redmonkez12/signup-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/signup-api/internal/auth"
	"github.com/redmonkez12/signup-api/internal/config"
	"github.com/redmonkez12/signup-api/internal/database"
	"github.com/redmonkez12/signup-api/internal/email"
	httpServer "github.com/redmonkez12/signup-api/internal/http"
	"github.com/redmonkez12/signup-api/internal/logging"
	"github.com/redmonkez12/signup-api/internal/user"
)

// @title           Signup API
// @version         1.0
// @description     User signup with email verification and login.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:4000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

const connectTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
	)

	store, storeCloser, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer storeCloser.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.HashAlgorithm, cfg.Auth.HashCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	tokenIssuer, err := auth.NewJWTIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	codec, err := auth.NewConfirmationCodec(cfg.Auth.ConfirmationKey, cfg.Auth.ConfirmationDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize confirmation codec: %w", err)
	}

	var sender email.Sender
	if cfg.Email.SMTPEnabled() {
		sender = email.NewSMTPSender(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.From,
		)
	} else {
		logger.Warn("SMTP_HOST not set, verification emails will only be logged")
		sender = email.NewLogSender(logger)
	}

	dispatcher, err := email.NewDispatcher(sender, email.DispatcherConfig{
		APIURL:        cfg.Server.APIURL,
		LinkTTL:       codec.TTL(),
		Retries:       cfg.Email.DispatchRetries,
		RetryInterval: cfg.Email.DispatchInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize email dispatcher: %w", err)
	}

	authService := auth.NewService(store, hasher, tokenIssuer, codec, dispatcher, logger)
	authHandler := auth.NewHandler(authService, logger)
	authMiddleware := auth.NewMiddleware(tokenIssuer)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore connects the configured backend and prepares its uniqueness
// constraints before any request is served.
func openStore(cfg *config.Config, logger *logging.Logger) (user.Store, io.Closer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.OpenPostgres(ctx, cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		if err := database.CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres", "host", cfg.Database.Host, "database", cfg.Database.DBName)
		return user.NewBunStore(db), db, nil

	case config.StoreRedis:
		client, err := database.OpenRedis(ctx, cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Address())
		return user.NewRedisStore(client), client, nil

	default:
		client, err := database.OpenMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		disconnect := closerFunc(func() error {
			return client.Disconnect(context.Background())
		})

		store := user.NewMongoStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.UsersCollection))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = disconnect.Close()
			return nil, nil, err
		}
		logger.Info("connected to mongo", "database", cfg.Mongo.Database, "collection", cfg.Mongo.UsersCollection)
		return store, disconnect, nil
	}
}
