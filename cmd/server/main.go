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

	"salon-sync-server/internal/config"
	"salon-sync-server/internal/handler"
	"salon-sync-server/internal/middleware"
	"salon-sync-server/internal/repository"
	"salon-sync-server/internal/service"
	"salon-sync-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	reservationRepo := repository.NewReservationRepository(client, cfg.Database.Name)

	wsManager := websocket.NewManager(
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	reservationService := service.NewReservationService(reservationRepo)
	conflictService := service.NewConflictService()
	syncService := service.NewSyncService(reservationRepo)

	wsManager.SetMessageHandler(handler.NewScheduleMessageHandler(reservationService, syncService, wsManager))
	wsManager.SetDisconnectHandler(syncService.StopSync)

	reservationHandler := handler.NewReservationHandler(reservationService)
	conflictHandler := handler.NewConflictHandler(conflictService)
	wsHandler := handler.NewWebSocketHandler(wsManager)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
		cfg.CORS.MaxAgeSeconds,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/reservations", reservationHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/reservations", reservationHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/reservations/batch", reservationHandler.BatchUpdate).Methods("POST", "OPTIONS")
	api.HandleFunc("/reservations/{id}", reservationHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/reservations/{id}", reservationHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/reservations/{id}", reservationHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/conflicts/detect", conflictHandler.Detect).Methods("POST", "OPTIONS")
	api.HandleFunc("/conflicts/resolve", conflictHandler.Resolve).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Salon Sync Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	syncService.StopAllSync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"salon-sync-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Salon Sync Server API","version":"1.0.0","endpoints":{"/api/v1/reservations":"GET, POST","/api/v1/reservations/{id}":"GET, PUT, DELETE","/api/v1/reservations/batch":"POST","/api/v1/conflicts/detect":"POST","/api/v1/conflicts/resolve":"POST","/ws":"WebSocket"}}`))
}
