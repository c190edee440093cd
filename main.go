package main

import (
	"os"

	"github.com/llehouerou/musicplayer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
