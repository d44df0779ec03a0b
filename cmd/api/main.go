package main

import (
	"log"

	"bloodreport-backend/internal/shared/config"
	"bloodreport-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app := server.Build(cfg)
	defer app.Shutdown()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
