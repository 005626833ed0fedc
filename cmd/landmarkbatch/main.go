// Command landmarkbatch replays a click script against two images and
// writes the landmark text grid and mask images, without a GUI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"landmark-picker/internal/app"
	"landmark-picker/internal/config"
	"landmark-picker/internal/landmark"
	"landmark-picker/internal/logging"
	"landmark-picker/internal/version"

	"github.com/rs/zerolog"
)

func main() {
	fixed := flag.String("f", "", "Path to fixed (1st) image")
	moving := flag.String("m", "", "Path to moving (2nd) image")
	script := flag.String("clicks", "", "Click script: one \"F x y\" or \"M x y\" per line")
	outDir := flag.String("o", "", "Output directory")
	fscale := flag.Float64("fscale", 1.0, "Zoom scale of the fixed image the clicks were made at")
	mscale := flag.Float64("mscale", 1.0, "Zoom scale of the moving image the clicks were made at")
	configDir := flag.String("config", "", "Directory containing "+config.FileName)
	logPath := flag.String("logfile", "", "Also append log output to this file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *fixed == "" || *moving == "" || *script == "" || *outDir == "" {
		fmt.Println("Usage: landmarkbatch -f <fixed> -m <moving> -clicks <script> -o <dir> [-fscale s] [-mscale s] [-config dir] [-logfile path]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Scripted clicks are relative to an explicit scale, never a fitted one.
	cfg.Zoom.FitOnLoad = false

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
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	clicks, err := readScript(*script)
	if err != nil {
		log.Fatal().Err(err).Str("path", *script).Msg("could not read click script")
	}

	state, err := app.NewState(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create application state")
	}

	for _, img := range []struct {
		ref   landmark.ImageRef
		path  string
		scale float64
	}{
		{landmark.Fixed, *fixed, *fscale},
		{landmark.Moving, *moving, *mscale},
	} {
		if err := state.LoadImage(img.ref, img.path); err != nil {
			log.Fatal().Err(err).Msg("could not load image")
		}
		if img.scale != 1.0 {
			if err := state.SetScale(img.ref, img.scale); err != nil {
				log.Fatal().Err(err).Str("image", img.ref.String()).Msg("scale not usable for this image")
			}
		}
	}

	stored := replay(state, clicks, log)
	log.Info().Int("clicks", len(clicks)).Int("stored", stored).Msg("click script replayed")

	fmt.Print(state.LandmarkText())

	res := state.Export(filepath.Join(*outDir, cfg.Export.TextName), *outDir)
	if res.Err != nil {
		log.Error().Err(res.Err).Msg("export failed")
		os.Exit(1)
	}
	log.Info().Str("dir", *outDir).Msg(res.Report.Summary())
}

func readScript(path string) ([]click, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseScript(f)
}

// replay feeds clicks to state, arming picking before each pair. Rejected
// clicks are logged and skipped. It returns the number of stored clicks.
func replay(state *app.State, clicks []click, log zerolog.Logger) int {
	stored := 0
	for _, c := range clicks {
		if !state.Armed() {
			if err := state.ArmPicking(); err != nil {
				log.Warn().Err(err).Int("line", c.Line).Msg("cannot pick more landmarks")
				continue
			}
		}

		_, err := state.Click(c.Image, c.At)
		var orderErr *landmark.OrderError
		switch {
		case err == nil:
			stored++
		case errors.As(err, &orderErr):
			log.Warn().Int("line", c.Line).Msg(orderErr.Message())
		default:
			log.Warn().Err(err).Int("line", c.Line).Msg("click skipped")
		}
	}
	return stored
}
