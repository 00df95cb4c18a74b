package main

import (
	"os"

	"github.com/lmercadier/moneydrop/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
