// Package main is the entry point for the Commodore CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/projectsyn/commodore/internal/cmd"
	"github.com/projectsyn/commodore/internal/cmdutil"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *cmdutil.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmdutil.ExitGeneralError)
	}
}
