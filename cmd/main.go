package main

import (
	"os"

	"github.com/Mayhomes/quiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
