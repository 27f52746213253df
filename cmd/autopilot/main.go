// Command autopilot compiles operator intents into a drone flight, previews it, stores
// it as a plan and sends it to the drone.
//
// Event lines are read from the script files given as arguments, or from stdin:
//
//	:INTENTS: forward forward cw up
//	:PLAY:
//	:EXPORT: square
//	:SEND:
//
// A line without a leading command is treated as a list of intents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dronepath/autopilot/internal/config"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion = "0.1.0"
	BuildDate      = "unknown"

	AppName = "autopilot"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	if err := config.RegisterFlags(fs); err != nil {
		return err
	}
	var opts runOptions
	fs.BoolVar(&opts.Follow, "follow", false, "print every cursor write during playback")
	fs.DurationVar(&opts.Frame, "animate", 0, "print the animated preview position at this frame interval")
	fs.StringVar(&opts.StatusFile, "status-file", "", "rewrite this file with the session status on every monitor tick")
	fs.BoolVar(&opts.Offline, "offline", false, "do not open the drone link")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(AppName, CurrentVersion, BuildDate)
		return nil
	}

	configDir, _ := fs.GetString("config-dir")
	loadErr := config.Load(configDir)
	if loadErr != nil {
		config.LoadDefaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts, time.Now())
	if err != nil {
		return err
	}
	defer a.Close()

	if loadErr != nil {
		a.log.Warn("Failed to load config, using defaults", "error", loadErr)
	} else {
		a.log.Info("Loaded config", "dir", configDir)
	}

	return a.runScripts(ctx, fs.Args(), os.Stdin, os.Stdout)
}
