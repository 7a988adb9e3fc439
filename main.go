package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/bjepson/quark/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "quark"
	app.Usage = "Cycle-accurate RV32I core model"
	app.Description = "Cycle-accurate RV32I core model: runs program images on a software rendition of a minimal RISC-V core with a variable-latency memory bus."
	app.Commands = []*cli.Command{
		cmd.RunCommand,
		cmd.DisasmCommand,
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-c
			cancel()
			fmt.Println("\r\nExiting...")
		}
	}()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			_, _ = fmt.Fprintf(os.Stderr, "command interrupted")
			os.Exit(130)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v", err)
			os.Exit(1)
		}
	}
}
