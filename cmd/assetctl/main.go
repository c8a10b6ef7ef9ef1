package main

import (
	"os"

	"assetd/internal/ctl"
)

func main() { os.Exit(ctl.Main()) }
