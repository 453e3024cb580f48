// Command maxsports runs the MAX Sports catalog: the local JSON API (serve)
// and a terminal client over the same data directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	rootcmd "github.com/sakif/maxsports/cmd/maxsports/root"
	"github.com/sakif/maxsports/internal/apperror"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperror.Message(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return rootcmd.New().ExecuteContext(ctx)
}
