package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/config"
	"github.com/swdee/go-crosscount/detect"
	"github.com/swdee/go-crosscount/journal"
	"github.com/swdee/go-crosscount/notify"
	"github.com/swdee/go-crosscount/pipeline"
	"github.com/swdee/go-crosscount/publish"
	"github.com/swdee/go-crosscount/server"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code.  Resources are released by deferred
// calls, so every return path cleans up
func run() int {
	parser := argparse.NewParser("crosscount", "Track objects in video and count boundary crossings")
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON configuration file, defaults are used when empty", Default: ""})
	sourcePath := parser.String("s", "source", &argparse.Options{Help: "Video file or camera id to process", Default: ""})
	addr := parser.String("a", "addr", &argparse.Options{Help: "HTTP listen address, overrides the configuration", Default: ""})
	autostart := parser.Flag("", "autostart", &argparse.Options{Help: "Start processing --source immediately", Default: false})
	verbose := parser.Flag("", "verbose", &argparse.Options{Help: "Log the configuration and periodic run statistics", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		return 1
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	cfg := config.DefaultConfig()
	if *configFile != "" {
		if cfg, err = config.Load(*configFile); err != nil {
			logger.Errorf("%v", err)
			return 1
		}
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	if *verbose {
		logger.Infof("Labels: %v", cfg.Labels)
		logger.Infof("Detector: %+v", cfg.Detector)
		logger.Infof("Tracking: %+v", cfg.Tracking)
		logger.Infof("Boundaries: %+v", cfg.Boundaries)
	}

	labels := crosscount.Labels(cfg.Labels)

	detector, err := detect.New(cfg.Detector, labels)
	if err != nil {
		logger.Errorf("Failed to create detector: %v", err)
		return 1
	}
	defer detector.Close()

	params, err := pipeline.ParamsFromConfig(cfg)
	if err != nil {
		logger.Errorf("Invalid pipeline configuration: %v", err)
		return 1
	}

	publisher := publish.NewPublisher()
	defer publisher.Close()

	pipe := pipeline.New(logger, params, pipeline.OpenCapture, detector, publisher)

	// the server takes a nil RunStore interface, not a nil *journal.Journal
	var runs server.RunStore
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Errorf("Failed to open journal: %v", err)
			return 1
		}
		defer j.Close()
		pipe.SetJournal(j)
		runs = j
	}

	if cfg.MQTT.Broker != "" {
		n, err := notify.New(cfg.MQTT, logger)
		if err != nil {
			logger.Errorf("Failed to start MQTT notifier: %v", err)
			return 1
		}
		defer n.Close()
		pipe.SetNotifier(n)
	}

	srv := server.New(logger, pipe, publisher, runs, cfg.StreamInterval())

	if *autostart {
		if err := autostartSource(pipe, *sourcePath); err != nil {
			logger.Errorf("Autostart failed: %v", err)
			srv.Close()
			return 1
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe(cfg.HTTP.Addr)
	}()

	var statsTick <-chan time.Time
	if *verbose {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		statsTick = ticker.C
	}

	exitCode := 0

loop:
	for {
		select {
		case sig := <-signals:
			logger.Infof("Received %v, shutting down", sig)
			break loop
		case err := <-serverErr:
			if err != nil {
				logger.Errorf("HTTP server failed: %v", err)
				exitCode = 1
			}
			break loop
		case <-statsTick:
			s := pipe.Stats()
			logger.Infof("%v %v frames=%v last=%v counts=%v", s.State, s.Source,
				s.Frames, s.LastIteration, publisher.ReadCounts())
		}
	}

	shutdown(logger, srv, pipe)

	return exitCode
}

type starter interface {
	Start(path string) error
}

// autostartSource starts processing path before the server takes requests
func autostartSource(ctl starter, path string) error {
	if path == "" {
		return errors.New("--autostart requires --source")
	}
	return ctl.Start(path)
}

// shutdown closes the server before stopping the pipeline so no request can
// start a new run once the notifier and journal are being closed
func shutdown(log logs.Log, srv io.Closer, pipe interface{ Stop() }) {
	if err := srv.Close(); err != nil {
		log.Warnf("Failed to close server: %v", err)
	}
	pipe.Stop()
}
