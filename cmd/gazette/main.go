package main

import (
	"context"
	"os"

	"github.com/kailas-cloud/gazette/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
