package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/sovanasrala/fitgroup-bot/core/bootstrap"
	corecmd "github.com/sovanasrala/fitgroup-bot/core/cmd"
	coreconfig "github.com/sovanasrala/fitgroup-bot/core/config"
	"github.com/sovanasrala/fitgroup-bot/internal/bot"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.DB)
		},
	})
	if err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}
