// @title Coachly Messaging
// @version 0.1
// @description Conversational messaging service: direct messages, conversations, attachments.

// @host localhost:8080
// @BasePath /api
// @query.collection.format multi
// @schemes http

package main

import (
	"log"

	_ "tush00nka/coachly_messaging/docs"
	"tush00nka/coachly_messaging/internal/app"
	"tush00nka/coachly_messaging/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	app.Run(cfg)
}
