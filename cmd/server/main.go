package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"scooter_simulator/internal/api"
	"scooter_simulator/internal/config"
	"scooter_simulator/internal/simulator"
	"scooter_simulator/internal/ws"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	configPath := flag.String("config", "", "optional simulation config file (JSON)")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	flag.Parse()

	manager := simulator.NewManager()

	// Load a config at startup so the API is usable before the first PUT.
	req := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		req = loaded
		log.Printf("Loaded config from %s", *configPath)
	}
	if err := manager.SetConfig(req.ToSimulation()); err != nil {
		log.Fatalf("Failed to apply config: %v", err)
	}

	// WebSocket hub with a single bridge feeding every client.
	hub := ws.NewHub()
	ws.NewBridge(hub).Attach(manager)
	wsHandler := ws.NewHandler(hub, manager)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
	}))

	api.RegisterRoutes(r, manager)
	r.GET("/ws/simulation", gin.WrapH(wsHandler))

	// Serve frontend static files when present.
	if _, err := os.Stat(*frontendDir); err == nil {
		log.Printf("Serving frontend from %s", *frontendDir)
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(*frontendDir))))
	}

	log.Printf("Starting server on %s", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatal(err)
	}

	manager.Stop()
}
