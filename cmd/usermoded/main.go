package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dalnet/usermoded/internal/api"
	"github.com/dalnet/usermoded/internal/config"
	"github.com/dalnet/usermoded/internal/irc"
	"github.com/dalnet/usermoded/internal/logging"
	"github.com/dalnet/usermoded/internal/metrics"
	"github.com/dalnet/usermoded/internal/usermode"
	_ "github.com/joho/godotenv/autoload"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Command line flags
	foreground := flag.Bool("x", false, "Run in foreground (don't daemonize)")
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	// Show version and exit
	if *showVersion || *showVersionLong {
		fmt.Printf("usermoded version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	// Set version info in irc package
	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	// Daemonize unless -x flag is set
	if !*foreground {
		daemonize()
		return
	}

	// Write PID file
	if err := writePIDFile(); err != nil {
		log.Printf("Warning: could not write PID file: %v", err)
	}

	run(*configPath)
}

// daemonize re-executes the binary detached, in foreground mode
func daemonize() {
	args := append(os.Args[1:], "-x")
	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = os.Environ()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to fork: %v", err)
	}
	fmt.Printf("Now becoming a daemon\nMy pid is %d, this has been written to pid.txt\n", cmd.Process.Pid)

	// Parent exits
	os.Exit(0)
}

func writePIDFile() error {
	pid := os.Getpid()
	return os.WriteFile("pid.txt", []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

func run(configPath string) {
	// Make config path absolute
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	// Build the mode store
	opts := &usermode.Options{Logger: logger}
	if cfg.Prefixes != nil {
		opts.Prefixes, err = usermode.ParsePrefixTable(cfg.Prefixes)
		if err != nil {
			logger.Fatalf("Invalid prefixes: %v", err)
		}
	}
	store := usermode.New(opts)
	if err := metrics.RegisterStore(metrics.Registry, store); err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	pool := irc.NewPool(cfg.Networks, store, logger)

	// HTTP API
	var server *api.Server
	if cfg.HTTPListen != "" {
		server = api.New(store, pool, logger)
		go func() {
			if err := server.Start(cfg.HTTPListen); err != nil {
				logger.Fatalf("HTTP API failed: %v", err)
			}
		}()
	}

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Infof("Received signal %v, shutting down...", sig)
		pool.Quit("Received shutdown signal")
		if server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.WithError(err).Warn("HTTP API shutdown")
			}
		}
	}()

	// Connect and run
	if err := pool.Run(); err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}

	logger.Info("Connected, entering main loop...")
	pool.Wait()
}
