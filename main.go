// Package main provides the entry point for the Landmark Picker application.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"landmark-picker/internal/app"
	"landmark-picker/internal/config"
	"landmark-picker/internal/logging"
	"landmark-picker/internal/version"
	"landmark-picker/ui/mainwindow"
	"landmark-picker/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "org.landmarkpicker.app"

func main() {
	configDir := flag.String("config", ".", "Directory containing "+config.FileName)
	logPath := flag.String("logfile", "", "Also append log output to this file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var logFile io.Writer
	if *logPath != "" {
		f, err := logging.OpenFile(*logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logFile = f
	}

	log := logging.New(cfg.LogLevel, os.Stderr, logFile)
	log.Info().Str("version", version.Version).Str("commit", version.GitCommit).Msg("starting " + version.Name)
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	appState, err := app.NewState(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create application state")
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&mainwindow.PickerTheme{})

	win := mainwindow.New(fyneApp, appState, prefs.Load(), log)
	win.ShowAndRun()
}
