package main

import (
	"log"

	"github.com/otsembank/otsem/internal/edge/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize edge: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("edge error: %v", err)
	}
}
