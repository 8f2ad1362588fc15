package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/lskalski/github-notifyd/pkg/avatar"
	"github.com/lskalski/github-notifyd/pkg/config"
	"github.com/lskalski/github-notifyd/pkg/feed"
	"github.com/lskalski/github-notifyd/pkg/notify"
	"github.com/lskalski/github-notifyd/pkg/scheduler"
)

// Opts with all CLI options
type Opts struct {
	Token      string `long:"token" env:"GITHUB_TOKEN" required:"true" description:"GitHub personal access token"`
	Interval   int    `short:"i" long:"polling-interval" env:"POLLING_INTERVAL" default:"45" description:"notifications polling interval, seconds"`
	NoAvatar   bool   `short:"a" long:"no-user-avatar" description:"don't show user avatar as a notification icon"`
	Persistent bool   `short:"p" long:"persistent-notifications" description:"use persistent notifications"`
	CacheDir   string `long:"cache-dir" env:"CACHE_DIR" description:"avatar cache directory (default: system temp)"`
	APIURL     string `long:"api-url" env:"API_URL" default:"https://api.github.com/notifications" description:"notifications endpoint"`
	Config     string `short:"c" long:"config" env:"CONFIG" description:"optional yaml config file"`
	Journal    bool   `long:"journal" description:"log to the systemd journal instead of stderr"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

const defaultInterval = 45 // keep in sync with the Interval flag default

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.Journal, opts.NoColor, opts.Token)

	log.Printf("[INFO] starting github-notifyd version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals; the in-flight cycle finishes before exit
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] github-notifyd failed: %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

// run wires the pipeline and polls until ctx is canceled
func run(ctx context.Context, opts Opts) error {
	interval := time.Duration(opts.Interval) * time.Second
	persistent := opts.Persistent
	noAvatar := opts.NoAvatar
	cacheDir := opts.CacheDir
	var extraQuirks []notify.Quirk

	if opts.Config != "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// file values apply where flags are at their defaults
		if cfg.Interval > 0 && opts.Interval == defaultInterval {
			interval = time.Duration(cfg.Interval) * time.Second
		}
		persistent = persistent || cfg.Persistent
		noAvatar = noAvatar || cfg.NoAvatar
		if cacheDir == "" {
			cacheDir = cfg.CacheDir
		}
		for _, q := range cfg.Quirks {
			extraQuirks = append(extraQuirks, notify.Quirk{
				Name:              q.Name,
				Vendor:            q.Vendor,
				Version:           q.Version,
				Newline:           q.Newline,
				DisableHyperlinks: q.DisableHyperlinks,
			})
		}
	}
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}

	server, err := notify.Connect()
	if err != nil {
		return fmt.Errorf("connect notification server: %w", err)
	}
	defer server.Close()

	// the handshake is the only fatal runtime dependency
	registry, err := notify.Negotiate(ctx, server)
	if err != nil {
		return err
	}

	fetcher := feed.NewFetcher(opts.Token)
	var avatars feed.AvatarStore
	if !noAvatar {
		avatars = avatar.New(cacheDir)
	}
	decoder := feed.NewDecoder(fetcher, avatars)
	renderer := notify.NewRenderer(registry, extraQuirks, persistent)

	sched := scheduler.New(fetcher, decoder, renderer, server,
		scheduler.Config{URL: opts.APIURL, Interval: interval})
	sched.Run(ctx)
	return nil
}

func setupLog(dbg, toJournal, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	switch {
	case toJournal:
		// the journal records its own timestamps and priorities
		logOpts = append(logOpts, lgr.Out(newJournalWriter()), lgr.Err(newJournalWriter()))
	case !noColor:
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	// the token must never reach any log sink
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
