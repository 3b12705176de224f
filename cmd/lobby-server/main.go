package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dumiswa/avatarlobby"
	"github.com/dumiswa/avatarlobby/tcp"
	"github.com/dumiswa/avatarlobby/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	setupLogger()

	cfg := configFromEnv()
	server := tcp.New(cfg)

	ctx := context.Background()
	if err := server.Start(ctx); err != nil {
		slog.Error("server failed to start", "error", err)
		os.Exit(1)
	}
	slog.Info("lobby listening", "addr", cfg.Addr)

	// Optional HTTP side: WebSocket bridge plus health/stats endpoints.
	var httpServer *http.Server
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		httpServer = newHTTPServer(addr, server)
		go func() {
			slog.Info("http bridge listening", "addr", addr)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func configFromEnv() *tcp.Config {
	cfg := tcp.DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if ms, ok := envInt("TICK_MS"); ok {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if room := os.Getenv("DEFAULT_ROOM"); room != "" {
		cfg.DefaultRoom = room
	}
	if os.Getenv("WHISPER_POLICY") == "name" {
		cfg.WhisperPolicy = tcp.WhisperByName
	}
	if radius, ok := envInt("WHISPER_RADIUS"); ok {
		cfg.WhisperRadius = int32(radius)
	}
	if os.Getenv("MOVE_SCOPE") == "room" {
		cfg.MoveScope = tcp.ScopeRoom
	}
	if os.Getenv("RATE_LIMIT") == "off" {
		cfg.RateLimit = tcp.NoRateLimit()
	}

	return cfg
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("ignoring invalid integer env var", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}

func newHTTPServer(addr string, server avatarlobby.Server) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(server, ws.AllOrigins()))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		clients, rooms := server.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"clients": clients, "rooms": rooms})
	})

	return &http.Server{Addr: addr, Handler: mux}
}
