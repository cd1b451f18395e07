package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"firebase.google.com/go/messaging"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"helpHub/internal/handlers"
	"helpHub/internal/realtime"
	"helpHub/internal/repositories"
	"helpHub/internal/services"
	"helpHub/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB
	hub      *realtime.Hub

	userRepo *repositories.UserRepository

	requestService      *services.RequestService
	offerService        *services.OfferService
	messageService      *services.MessageService
	notificationService *services.NotificationService

	requestHandler      *handlers.RequestHandler
	offerHandler        *handlers.OfferHandler
	messageHandler      *handlers.MessageHandler
	notificationHandler *handlers.NotificationHandler
	authHandler         *handlers.AuthHandler
	fcmHandler          *handlers.FCMHandler
}

func initializeApp(db *sql.DB, rdb *redis.Client, fcmClient *messaging.Client, errorLog, infoLog *log.Logger) *application {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	requestRepo := repositories.RequestRepository{DB: db}
	offerRepo := repositories.OfferRepository{DB: db}
	messageRepo := repositories.MessageRepository{DB: db}
	notificationRepo := repositories.NotificationRepository{DB: db}

	hub := realtime.NewHub(errorLog)

	var fcmHandler *handlers.FCMHandler
	var mobilePusher services.MobilePusher
	if fcmClient != nil {
		fcmHandler = handlers.NewFCMHandler(fcmClient, db)
		mobilePusher = fcmHandler
	}

	// Services
	notificationService := &services.NotificationService{
		NotificationRepo: &notificationRepo,
		Hub:              hub,
		FCM:              mobilePusher,
		ErrorLog:         errorLog,
	}
	requestService := &services.RequestService{
		RequestRepo: &requestRepo,
		ErrorLog:    errorLog,
	}
	// assigned only when redis is up, a nil interface keeps the SQL
	// fallback path active
	if rdb != nil {
		requestService.Geo = repositories.NewGeoIndex(rdb)
	}
	offerService := &services.OfferService{
		OfferRepo:     &offerRepo,
		RequestRepo:   requestService,
		UserRepo:      &userRepo,
		Notifications: notificationService,
		ErrorLog:      errorLog,
	}
	messageService := &services.MessageService{
		MessageRepo: &messageRepo,
		RequestRepo: requestService,
		UserRepo:    &userRepo,
		Hub:         hub,
	}

	var authHandler *handlers.AuthHandler
	if tokens, err := utils.NewManager(os.Getenv("JWT_SECRET")); err != nil {
		errorLog.Printf("JWT_SECRET not set, session refresh disabled: %v", err)
	} else {
		authHandler = &handlers.AuthHandler{Tokens: tokens, UserRepo: &userRepo}
	}

	return &application{
		errorLog: errorLog,
		infoLog:  infoLog,
		db:       db,
		hub:      hub,
		userRepo: &userRepo,

		requestService:      requestService,
		offerService:        offerService,
		messageService:      messageService,
		notificationService: notificationService,

		requestHandler:      &handlers.RequestHandler{Service: requestService},
		offerHandler:        &handlers.OfferHandler{Service: offerService},
		messageHandler:      &handlers.MessageHandler{Service: messageService},
		notificationHandler: &handlers.NotificationHandler{Service: notificationService},
		authHandler:         authHandler,
		fcmHandler:          fcmHandler,
	}
}

func openDB(driver, dsn string) (*sql.DB, error) {
	if driver == "" {
		driver = "mysql"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Println("Successfully connected to database")
	return db, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
