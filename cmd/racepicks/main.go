package main

import (
	"fmt"
	"os"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
