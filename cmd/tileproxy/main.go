package main

import (
	"log"

	"github.com/jaennil/weather_maps/internal/app"
	"github.com/jaennil/weather_maps/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
