package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flickvault/flickvault/config"
	"github.com/flickvault/flickvault/handlers"
	"github.com/flickvault/flickvault/middleware"
	"github.com/flickvault/flickvault/models"
	"github.com/flickvault/flickvault/service"
	"github.com/flickvault/flickvault/store"
)

func main() {
	_ = godotenv.Load()
	config.ValidateEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Errorw("mongodb disconnect", "err", err)
		}
	}()

	if err := store.Bootstrap(ctx, db, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("bootstrap:", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis:", err)
	}

	var objects service.ObjectStore
	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("s3:", err)
		}
		objects = s3Service
	} else {
		logger.Warnw("AWS_S3_BUCKET not set; profile picture uploads will fail")
	}

	var mailer *service.Mailer
	if cfg.SMTPHost != "" {
		mailer = service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender)
	} else {
		logger.Warnw("SMTP_HOST not set; confirmation and reset mail will not be delivered")
	}

	users := store.NewUserStore(db)
	records := store.NewRecordStore(db)
	tokens := store.NewTokenStore(db)

	accounts := service.NewAccountService(users, records, tokens, objects, logger)
	secureCookies := len(cfg.BaseURL) >= 8 && cfg.BaseURL[:8] == "https://"
	sessions := service.NewSessionService(users, cfg.SessionSecret, cfg.SessionWindow, secureCookies)
	var resetMailer service.ResetMailer
	if mailer != nil {
		resetMailer = mailer
	}
	resets := service.NewResetService(users, tokens, resetMailer, cfg.BaseURL, cfg.ResetTokenTTL, logger)
	pictures := service.NewPictureService(users, objects, cfg.MaxUploadMB*1024*1024, logger)
	throttle := service.NewThrottle(rdb, cfg.RequestWindow)
	var metadata service.TitleMetadataFetcher
	if cfg.MovieAPIKey != "" {
		metadata = service.NewMovieAPI(cfg.MovieAPIBaseURL, cfg.MovieAPIKey)
	} else {
		logger.Warnw("MOVIE_API_KEY not set; title requests will not be enriched")
	}
	recordSvc := service.NewRecordService(records, metadata, logger)

	authHandler := &handlers.AuthHandler{
		Accounts: accounts,
		Sessions: sessions,
		Resets:   resets,
		BaseURL:  cfg.BaseURL,
		Log:      logger,
	}
	if mailer != nil {
		authHandler.Mailer = mailer
	}
	profileHandler := &handlers.ProfileHandler{
		Accounts: accounts,
		Pictures: pictures,
		Records:  recordSvc,
		MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
		Log:      logger,
	}
	recordsHandler := &handlers.RecordsHandler{
		Records:  recordSvc,
		Throttle: throttle,
		Log:      logger,
	}
	adminHandler := &handlers.AdminHandler{
		Accounts: accounts,
		Records:  recordSvc,
		Log:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Session(sessions))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to flickvault."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/signup", authHandler.SignUp)
	r.Get("/confirm", authHandler.Confirm)
	r.Post("/login", authHandler.Login)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/logout", authHandler.Logout)
		r.Get("/profile", profileHandler.Profile)
		r.Post("/profile/password", profileHandler.UpdatePassword)
		r.Post("/profile/picture", profileHandler.UpdatePicture)
		r.Post("/records/request", recordsHandler.Request)
		r.Get("/records/{id}", recordsHandler.Get)
		r.Post("/records/{id}", recordsHandler.Edit)
		r.Post("/records/{id}/delete", recordsHandler.Delete)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Get("/admin/users", adminHandler.ListUsers)
		r.Get("/admin/users/{id}", adminHandler.GetUser)
		r.Post("/admin/users/{id}/delete", adminHandler.DeleteUser)
		r.Post("/admin/users/{id}/email", adminHandler.UpdateEmail)
		r.Get("/admin/records", adminHandler.ListRecords)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infow("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown", "err", err)
	}
}
