package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/ThaumielSparrow/go-sm83/sm83"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend/headless"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend/sdl2"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend/terminal"
	"github.com/ThaumielSparrow/go-sm83/sm83/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "sm83"
	app.Description = "A cycle-stepped Game Boy emulator"
	app.Usage = "sm83 [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file (.gb, .gbc, .zip, .gz, .7z)",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Frontend to use: terminal, sdl2 or headless",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "capture-interval",
			Usage: "Save PNG frame captures every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "capture-dir",
			Usage: "Directory for frame captures (default: temp directory)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for the sdl2 backend",
			Value: 4,
		},
		cli.BoolFlag{
			Name:  "no-vsync",
			Usage: "Disable vsync in the sdl2 backend",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().First()
	}

	machine, err := sm83.NewFromFile(romPath)
	if err != nil {
		return err
	}

	var (
		front   backend.Backend
		limiter timing.Limiter
	)
	switch name := c.String("backend"); name {
	case "terminal":
		front = terminal.New()
		limiter = timing.NewAdaptiveLimiter()
	case "sdl2":
		front = sdl2.New()
		limiter = timing.NewAdaptiveLimiter()
	case "headless":
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames with a positive value")
		}
		capture, err := headless.NewCaptureConfig(c.Int("capture-interval"), c.String("capture-dir"), romPath)
		if err != nil {
			return err
		}
		front = headless.New(frames, capture)
		limiter = timing.NewNoOpLimiter()
	default:
		return fmt.Errorf("unknown backend %q", name)
	}

	config := backend.Config{
		Title: fmt.Sprintf("sm83 - %s", machine.Cartridge().Title()),
		Scale: c.Int("scale"),
		VSync: !c.Bool("no-vsync"),
	}
	if err := front.Init(config); err != nil {
		return err
	}

	return sm83.NewRunner(machine, front, limiter, romPath).Run()
}
