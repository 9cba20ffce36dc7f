package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const timeout time.Duration = 10 * time.Second

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		_, _ = w.Write([]byte("axiswolf v" + releaseVersion + "\n"))
		log.Debug().Str("client", realIP(r)).Msg("served version page")
	}
}

func serveHealthCheck(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		_, _ = w.Write([]byte("OK\n"))
	}
}

func serveRobots(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
	}
}

func registerRoutes(cfg *Config, store *Store, mux *httprouter.Router) {
	prefix := cfg.prefix

	mux.GET(prefix+"/healthz", serveHealthCheck(cfg))
	mux.GET(prefix+"/version", serveVersion(cfg))
	mux.GET(prefix+"/robots.txt", serveRobots(cfg))

	mux.POST(prefix+"/api/rooms/:code", roomActionHandler(cfg, store))
	mux.GET(prefix+"/api/rooms/:code", getRoomHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/phase", updatePhaseHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/themes", updateThemesHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/leave", leaveRoomHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/cards", placeCardHandler(cfg, store))
	mux.GET(prefix+"/api/rooms/:code/cards", getCardsHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/vote", submitVoteHandler(cfg, store))
	mux.GET(prefix+"/api/rooms/:code/votes", getVotesHandler(cfg, store))
	mux.GET(prefix+"/api/rooms/:code/hand", getHandHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/calculate_results", calculateResultsHandler(cfg, store))
	mux.POST(prefix+"/api/rooms/:code/next_round", nextRoundHandler(cfg, store))
	mux.POST(prefix+"/api/auth/verify", verifyTokenHandler(cfg, store))
	mux.GET(prefix+"/api/debug/rooms", debugRoomsHandler(cfg, store))

	mux.GET(prefix+"/rooms/:code/qr", qrHandler(cfg))
	mux.GET(prefix+"/ws/:code", serveWS(cfg, store))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	log.Info().Str("version", releaseVersion).Msg("starting axiswolf")

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		log.Error().Any("panic", i).Str("path", r.URL.Path).Msg("handler panicked")
		securityHeaders(cfg, w)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"detail":  "internal server error",
		})
	}

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	store := NewStore(cfg.chatHistory)
	registerRoutes(cfg, store, mux)

	go store.ReapLoop(ctx, cfg.reapInterval, cfg.roomRetention)

	go func() {
		var err error
		log.Info().Str("addr", cfg.scheme()+"://"+srv.Addr+cfg.prefix+"/").Msg("listening")
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
