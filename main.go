package main

import (
	"context"
	"os"

	"kiraye/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
