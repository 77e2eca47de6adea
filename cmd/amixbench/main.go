// Command amixbench benchmarks and cross-checks the strategies of the amix
// mixing-rule kernel.
package main

import (
	"context"
	"os"

	"github.com/agbru/amixbench/internal/app"
	apperrors "github.com/agbru/amixbench/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitCode(err))
	}
	os.Exit(application.Run(context.Background(), os.Stdout))
}
