package main

import (
	"os"

	"github.com/chainprobe/chainprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
