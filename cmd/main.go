package main

import (
	"fmt"
	"os"

	"github.com/Leganyst/slotswapper/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slotswapper:", err)
		os.Exit(1)
	}
}
