package main

import (
	"github.com/joho/godotenv"

	"github.com/pxvault/px/cmd"
)

func main() {
	// Optional .env for PX_LIBRARY and friends; absence is fine
	_ = godotenv.Load()

	cmd.Execute()
}
