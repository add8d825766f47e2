// Command dogtown starts the game server.
//
// It serves the REST API, the spectator WebSocket feed and an /mcp HTTP
// endpoint from one listener, drives the simulation with an optional
// autoticker, and persists game state to a snapshot file and retired
// players to Postgres.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/dogtown/api"
	"github.com/wricardo/dogtown/game/config"
	"github.com/wricardo/dogtown/game/engine"
	"github.com/wricardo/dogtown/game/service"
	"github.com/wricardo/dogtown/storage"
	"github.com/wricardo/dogtown/transport/mcp"
	"github.com/wricardo/dogtown/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Dogtown Game Server"
)

const listenAddr = "0.0.0.0:8080"

// serverOptions collects the CLI flags that shape a server run.
type serverOptions struct {
	TickPeriodMs   int64
	ConfigFile     string
	WWWRoot        string
	RandomizeSpawn bool
	StateFile      string
	SavePeriodMs   int64
}

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := &cli.Command{
		Name:    "dogtown",
		Usage:   "multiplayer dog game server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "tick-period",
				Usage: "autoticker period in milliseconds; 0 keeps ticking manual",
			},
			&cli.StringFlag{
				Name:     "config-file",
				Usage:    "game configuration JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "www-root",
				Usage:    "directory with the static web client",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "randomize-spawn-points",
				Usage: "spawn dogs at random road points instead of the first road start",
			},
			&cli.StringFlag{
				Name:  "state-file",
				Usage: "snapshot file for save/restore; empty disables persistence",
			},
			&cli.Int64Flag{
				Name:  "save-state-period",
				Usage: "autosave period in game-time milliseconds; 0 disables autosave",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, serverOptions{
				TickPeriodMs:   cmd.Int64("tick-period"),
				ConfigFile:     cmd.String("config-file"),
				WWWRoot:        cmd.String("www-root"),
				RandomizeSpawn: cmd.Bool("randomize-spawn-points"),
				StateFile:      cmd.String("state-file"),
				SavePeriodMs:   cmd.Int64("save-state-period"),
			})
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%s failed: %v", AppName, err)
	}
}

func run(ctx context.Context, opts serverOptions) error {
	log.Printf("Starting %s v%s", AppName, Version)

	dbURL := os.Getenv("GAME_DB_URL")
	if dbURL == "" {
		return errors.New("GAME_DB_URL environment variable is required")
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stats, err := storage.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	defer stats.Close()

	game, err := engine.NewGame(cfg.Maps, cfg.LootGen, opts.RandomizeSpawn)
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}

	app := service.NewApplication(game, stats, cfg.RetirementMs, opts.StateFile)
	if err := app.RecoverFromFile(); err != nil {
		return fmt.Errorf("recover state: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	// Push fresh state to spectators after every tick.
	cancelBroadcast := app.OnTick(func(int64) {
		for _, mapID := range hub.ActiveMaps() {
			state, err := app.MapState(mapID)
			if err != nil {
				continue
			}
			hub.BroadcastToMap(mapID, state)
		}
	})
	defer cancelBroadcast()

	if opts.TickPeriodMs > 0 {
		app.EnableAutoTicker(opts.TickPeriodMs)
		log.Printf("Autoticker enabled (period %dms)", opts.TickPeriodMs)
	} else {
		log.Println("Autoticker disabled; game time advances via POST /api/v1/game/tick")
	}

	var autosave *service.AutosaveListener
	if opts.StateFile != "" && opts.SavePeriodMs > 0 {
		autosave = service.StartAutosave(app, opts.SavePeriodMs)
		log.Printf("Autosave enabled (every %dms of game time to %s)", opts.SavePeriodMs, opts.StateFile)
	}

	apiServer := api.NewServer(app, hub, opts.WWWRoot)
	mcpClient := mcp.NewClient("http://" + listenAddr)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		log.Printf("Server started on %s", listenAddr)
		log.Printf("REST API: http://%s/api/v1", listenAddr)
		log.Printf("WebSocket: ws://%s/ws?map=<map_id>", listenAddr)
		log.Printf("MCP endpoint: http://%s/mcp", listenAddr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Println("Shutting down...")
		app.StopAutoTicker()
		if autosave != nil {
			autosave.Stop()
		}
		if err := app.SaveState(); err != nil {
			log.Printf("Failed to save state on shutdown: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Println("Server exited")
	return nil
}
