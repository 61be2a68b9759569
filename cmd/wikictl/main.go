package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		f := &cli.OutputFormatter{Writer: os.Stderr}
		if format, ferr := cmd.PersistentFlags().GetString("format"); ferr == nil {
			f.Format = format
		}
		f.Error(err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
