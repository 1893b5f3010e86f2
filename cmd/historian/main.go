// cmd/historian/main.go
package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mkleist/uno/internal/historian"
)

func main() {
	hs := historian.NewService()
	if err := hs.Run(); err != nil {
		log.Fatalf("historian exited: %v", err)
	}
}
