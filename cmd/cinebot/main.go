package main

import (
	"os"

	"github.com/cinephiles/cinebot/botservice"
	"github.com/cinephiles/cinebot/internal/platform/logger"
)

func main() {
	if err := botservice.Run(); err != nil {
		log := logger.New("cinebot")
		log.Error().Err(err).Msg("bot service failed")
		os.Exit(1)
	}
}
