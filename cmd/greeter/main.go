// Command greeter serves an in-memory user registry over HTTP.
package main

import (
	"log"

	"github.com/patric-chuzhbe/greeter/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	err = theApp.Run()
	theApp.Close()
	if err != nil {
		log.Fatalf("app run failed: %v", err)
	}
}
