package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/config"
	"github.com/contactio/contactio/internal/email"
	"github.com/contactio/contactio/internal/handlers"
	"github.com/contactio/contactio/internal/media"
	"github.com/contactio/contactio/internal/middleware"
	"github.com/contactio/contactio/internal/repository"
	"github.com/contactio/contactio/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	contactRepo := repository.NewContactRepository(dynamoClient, cfg.DynamoDB.TableName, logger)

	authority, err := auth.NewAuthority(auth.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessExpiry,
		RefreshTTL:    cfg.JWT.RefreshExpiry,
	}, userRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token authority")
	}

	contactService := service.NewContactService(contactRepo, logger)
	mailSender := email.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress, cfg.Server.AppURL)

	avatarUploader, err := media.NewCloudinaryUploader(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize Cloudinary")
	}

	authHandlers := handlers.NewAuthHandlers(authority, userRepo, logger)
	contactHandlers := handlers.NewContactHandlers(contactService, logger)
	userHandlers := handlers.NewUserHandlers(userRepo, avatarUploader, logger)
	emailHandlers := handlers.NewEmailHandlers(authority, userRepo, mailSender, logger)

	authMiddleware := middleware.NewAuthMiddleware(authority, logger)
	rateLimiter := middleware.NewRateLimiter(redisClient, logger)

	router := setupRouter(authHandlers, contactHandlers, userHandlers, emailHandlers, authMiddleware, rateLimiter, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8080", "https://localhost:8080", "http://localhost:8000", "https://localhost:8000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	contactHandlers *handlers.ContactHandlers,
	userHandlers *handlers.UserHandlers,
	emailHandlers *handlers.EmailHandlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api/v1").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", authHandlers.Register).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/refresh", authHandlers.Refresh).Methods("POST", "OPTIONS")

	logoutRoute := api.PathPrefix("/auth/logout").Subrouter()
	logoutRoute.Use(authMiddleware.RequireAuth)
	logoutRoute.HandleFunc("", authHandlers.Logout).Methods("POST", "OPTIONS")

	emailRoutes := api.PathPrefix("/email").Subrouter()
	emailRoutes.Handle("/send-confirmation",
		rateLimiter.Limit("email-send", 2, 10*time.Second)(http.HandlerFunc(emailHandlers.SendConfirmation)),
	).Methods("POST", "OPTIONS")
	emailRoutes.Handle("/confirm/{token}",
		rateLimiter.Limit("email-confirm", 2, 10*time.Second)(http.HandlerFunc(emailHandlers.Confirm)),
	).Methods("GET", "OPTIONS")

	userRoutes := api.PathPrefix("/users").Subrouter()
	userRoutes.Use(authMiddleware.RequireAuth)
	userRoutes.Handle("/profile",
		rateLimiter.Limit("profile", 2, 40*time.Second)(http.HandlerFunc(userHandlers.Profile)),
	).Methods("GET")
	userRoutes.Handle("/avatar",
		rateLimiter.Limit("avatar-update", 2, 40*time.Second)(http.HandlerFunc(userHandlers.UpdateAvatar)),
	).Methods("POST", "PATCH")
	userRoutes.Handle("/avatar",
		rateLimiter.Limit("avatar-delete", 1, 2*time.Minute)(http.HandlerFunc(userHandlers.DeleteAvatar)),
	).Methods("DELETE")

	contactRoutes := api.PathPrefix("/contacts").Subrouter()
	contactRoutes.Use(authMiddleware.RequireAuth)
	contactRoutes.HandleFunc("", contactHandlers.List).Methods("GET")
	contactRoutes.HandleFunc("", contactHandlers.Create).Methods("POST")
	contactRoutes.HandleFunc("/birthdays", contactHandlers.UpcomingBirthdays).Methods("GET")
	contactRoutes.HandleFunc("/{id}", contactHandlers.Get).Methods("GET")
	contactRoutes.HandleFunc("/{id}", contactHandlers.Update).Methods("PUT")
	contactRoutes.HandleFunc("/{id}", contactHandlers.Delete).Methods("DELETE")

	return router
}
