// Minimal entry point kept at the repository root for go run/install
// convenience: loads a ROM and runs the terminal frontend. The full
// CLI with backend and capture options lives in cmd/sm83.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/ThaumielSparrow/go-sm83/sm83"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend/terminal"
	"github.com/ThaumielSparrow/go-sm83/sm83/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "sm83"
	app.Description = "A cycle-stepped Game Boy emulator"
	app.Usage = "sm83 <ROM file>"
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}
	romPath := c.Args().First()

	machine, err := sm83.NewFromFile(romPath)
	if err != nil {
		return err
	}

	front := terminal.New()
	if err := front.Init(backend.Config{Title: machine.Cartridge().Title()}); err != nil {
		return err
	}

	return sm83.NewRunner(machine, front, timing.NewAdaptiveLimiter(), romPath).Run()
}
