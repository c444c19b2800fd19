package main

import (
	"github.com/codesidh/chc-insight-crm-sub000/internal/app"
)

func main() {
	// Initialize application
	application, err := app.Initialize("")
	if err != nil {
		panic(err)
	}

	// Start server (blocks until shutdown signal)
	app.StartServer(application.Config, application.Handlers)
}
