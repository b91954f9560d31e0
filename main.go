package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/samuelfneumann/modym/commands"
)

func main() {
	// Flag defaults may come from a .env file
	_ = godotenv.Load(".env")

	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
