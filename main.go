package main

import (
	"context"

	"sjsage522/partsworker/cmd"
	"sjsage522/partsworker/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	cmd.ExecuteContext(context.Background())
}
