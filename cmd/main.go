package main

import (
	"fmt"
	"os"

	"github.com/yungbote/beatforge-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Log.Info("Starting server", "port", application.Cfg.Port)
	if err := application.Run(); err != nil {
		application.Log.Error("Server exited", "error", err)
		application.Close()
		os.Exit(1)
	}
}
