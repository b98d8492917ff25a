package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spiffcs/ghstats/cmd"
)

// Set via ldflags
var (
	version string
	commit  string
	date    string
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
