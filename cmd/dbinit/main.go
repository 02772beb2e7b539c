package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := dbinit.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

}
