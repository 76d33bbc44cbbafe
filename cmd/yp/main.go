package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"yp/internal/app"
	"yp/internal/config"
	"yp/internal/metadata"
	"yp/internal/obs"
	"yp/internal/player"
	"yp/internal/transcription"
	"yp/pkg/deps"
)

func main() {
	configDir := flag.String("config-dir", "", "directory to search for yp.yaml")
	query := flag.String("query", "", "initial search query")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] loading config:", err)
		os.Exit(1)
	}

	checker := deps.NewChecker(cfg.MPVBinary, cfg.YtDlpBinary, cfg.FfmpegBinary)
	if err := checker.CheckAndPrint(); err != nil {
		os.Exit(1)
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "yp.log")
	}
	log, logFile, err := obs.NewFileLogger(logPath, cfg.LogDebug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] opening log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	obs.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("terminal_state: fatal panic, exiting")
			os.Exit(1)
		}
	}()

	ytdlp := &metadata.YtDlpTool{
		CookiesFile:        cfg.CookiesFile,
		CookiesFromBrowser: cfg.CookiesFromBrowser,
	}
	fetcher := metadata.NewFetcher(ytdlp)

	pc := player.New(log)

	pipeline := transcription.New(log, transcription.Config{
		ModelURL:          cfg.ModelURL,
		ModelCacheDir:     cfg.ModelCacheDir,
		ModelName:         cfg.ModelName,
		RecognizerBinPath: cfg.RecognizerBin,
	}, func(ctx context.Context, entryURL string) (string, error) {
		id, ok := videoIDFromWatchURL(entryURL)
		if !ok {
			return "", fmt.Errorf("cannot derive video id from %q", entryURL)
		}
		return ytdlp.ResolveStreamURL(ctx, id)
	})

	var prefs app.PreferencesStore // nil: preferences file format is out of scope
	renderer := &logRenderer{log: log}
	input := newStdinInput(ctx)

	loop := app.NewLoop(log, pc, fetcher, pipeline, renderer, input, prefs, cfg.ChannelPrefixes)

	if *query != "" {
		loop.Search(ctx, *query, cfg.SearchLimit)
	}

	if cfg.DebugAddr != "" {
		srv := obs.NewServer(cfg.DebugAddr, loop)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Warn().Err(err).Msg("debug server stopped")
			}
		}()
	}

	loop.Run(ctx)
}

// videoIDFromWatchURL reverses metadata's watchURL() formatting, pulling
// the "v" query parameter back out of a youtube.com/watch URL.
func videoIDFromWatchURL(entryURL string) (string, bool) {
	u, err := url.Parse(entryURL)
	if err != nil {
		return "", false
	}
	id := u.Query().Get("v")
	return id, id != ""
}
