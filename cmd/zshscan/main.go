package main

import (
	"os"

	"github.com/zshscan/zshscan/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
