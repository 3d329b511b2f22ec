package main

import (
	"os"

	"kaizen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
