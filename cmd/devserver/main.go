package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gymkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/gymkeeper/internal/server"
	"github.com/dmitrijs2005/gymkeeper/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

}
