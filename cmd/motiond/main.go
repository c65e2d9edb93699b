package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-motion/internal/config"
	"github.com/coreman2200/funtimes-motion/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		fps         = flag.Int("fps", 60, "hub frames per second")
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		programPath = flag.String("program", "", "path to a program YAML (overrides config program)")
		logLevel    = flag.String("log-level", "info", "zerolog level: debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where available) ----
	eAddr, eFPS, eLevel := *addr, *fps, *logLevel
	if cfg != nil {
		if cfg.Server.Addr != "" {
			eAddr = cfg.Server.Addr
		}
		if cfg.Server.FPS > 0 {
			eFPS = cfg.Server.FPS
		}
		if cfg.Server.LogLevel != "" {
			eLevel = cfg.Server.LogLevel
		}
	}
	if lvl, err := zerolog.ParseLevel(eLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", eLevel).Msg("unknown log level; keeping info")
	}

	// ---- State ----
	state := ws.NewState(eFPS)

	// ---- Startup program: -program wins, then config.program ----
	switch {
	case *programPath != "":
		p, err := config.LoadProgram(*programPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *programPath).Msg("program load failed")
		}
		if err := state.LoadProgram(*p); err != nil {
			log.Fatal().Err(err).Msg("program rejected")
		}
		log.Info().Str("program", p.Name).Int("tracks", len(p.Tracks)).Msg("program loaded")
	case cfg != nil && len(cfg.Program.Tracks) > 0:
		if err := state.LoadProgram(cfg.Program); err != nil {
			log.Fatal().Err(err).Msg("config program rejected")
		}
		log.Info().Str("program", cfg.Program.Name).Int("tracks", len(cfg.Program.Tracks)).Msg("program loaded")
	default:
		log.Info().Msg("no startup program; waiting for control clients")
	}

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         eAddr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run frame loop & server ----
	ctx, cancel := context.WithCancel(context.Background())
	go state.RunLoop(ctx)
	go func() {
		log.Info().Str("addr", eAddr).Int("fps", eFPS).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
