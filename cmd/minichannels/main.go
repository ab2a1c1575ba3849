package main

import (
	"log"

	"github.com/MrSnakeDoc/minichannels/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ minichannels failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ minichannels failed: %v", err)
	}
}
