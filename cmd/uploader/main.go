package main

import (
	"context"
	"log"

	"github.com/camtrapkit/uploader/internal/client/cli"
	"github.com/camtrapkit/uploader/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	app.Run(ctx)

}
