package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/bleemesser/photomigrate/util"
)

func main() {
	rootCmd := util.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ photomigrate: %v\n", err)
		os.Exit(1)
	}
}
