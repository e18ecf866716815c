// Command quicknotes is the terminal client for the notes service.
package main

import (
	"log"

	"github.com/itsDongki/quicknotes/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("quicknotes failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("quicknotes failed: %v", err)
	}
}
