package main

import (
	"log"

	"github.com/MrSnakeDoc/bagbuilder/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ bagbuilder failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ bagbuilder stopped with error: %v", err)
	}
}
