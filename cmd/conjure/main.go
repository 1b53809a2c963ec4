// Package main is the entry point for the conjure prepl pool.
//
// It connects every declaration in the config file and then reads simple
// line commands from stdin: an eval request is "<path> <code>", where path
// picks the matching connection(s). Colon commands cover the rest:
// :def <path> <name>, :comp <path>, :status, :quit.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/julienvincent/conjure/internal/config"
	"github.com/julienvincent/conjure/internal/editor"
	"github.com/julienvincent/conjure/internal/pool"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", ".conjure.toml", "Path to connection declarations")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("conjure %s (%s)\n", version, commit)
		return 0
	}

	log := editor.NewLogger(editor.LoggerConfig{
		Level:  editor.ParseLogLevel(logLevel),
		Output: os.Stdout,
		Prefix: "conjure",
	})
	console := editor.NewConsole(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	p := pool.New()
	defer p.Shutdown()

	connectAll(p, console, cfg, log)

	watcher, err := config.Watch(configPath, func() {
		log.Warn("configuration changed on disk; use :reconnect to apply")
	})
	if err != nil {
		log.Warn("config watching unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		p.Shutdown()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":quit" {
			break
		}
		handleLine(p, console, log, configPath, line)
	}

	return 0
}

// connectAll registers every declared connection, logging failures
// instead of aborting so one dead endpoint does not block the rest.
func connectAll(p *pool.Pool, server editor.Server, cfg config.Config, log *editor.Logger) {
	for key, decl := range cfg.Connections {
		expr, lang, err := decl.Compile()
		if err != nil {
			log.Error("connection %q: %v", key, err)
			continue
		}
		if err := p.Connect(key, server, decl.Addr, expr, lang); err != nil {
			log.Error("connecting %q to %s: %v", key, decl.Addr, err)
			continue
		}
		log.Info("connected %q to %s (%s)", key, decl.Addr, lang)
	}
}

// handleLine dispatches one stdin command.
func handleLine(p *pool.Pool, console *editor.Console, log *editor.Logger, configPath, line string) {
	fields := strings.Fields(line)

	switch fields[0] {
	case ":status":
		log.Info("connections: %s", strings.Join(p.Keys(), ", "))

	case ":reconnect":
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error("reloading config: %v", err)
			return
		}
		p.Shutdown()
		connectAll(p, console, cfg, log)

	case ":def":
		if len(fields) < 3 {
			log.Error("usage: :def <path> <name>")
			return
		}
		if err := p.GoToDefinition(fields[2], editor.Context{Path: fields[1]}); err != nil {
			log.Error("%v", err)
		}

	case ":comp":
		if len(fields) < 2 {
			log.Error("usage: :comp <path>")
			return
		}
		if err := p.UpdateCompletions(editor.Context{Path: fields[1]}); err != nil {
			log.Error("%v", err)
		}

	default:
		if len(fields) < 2 {
			log.Error("usage: <path> <code>")
			return
		}
		code := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		keys, err := p.Eval(code, editor.Context{Path: fields[0]})
		if err != nil {
			log.Error("%v", err)
			return
		}
		log.Debug("evaluating through: %s", strings.Join(keys, ", "))
	}
}
