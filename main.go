package main

import (
	"context"
	"os"

	"github.com/biosecret/go-tasks/app"
)

//	@title						go-tasks API
//	@version					1.0
//	@description				Personal task tracking with owner-scoped access.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	// setup and run app
	if err := app.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
