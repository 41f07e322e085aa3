package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"

	"github.com/user/go3270/internal/config"
	"github.com/user/go3270/internal/emulator"
	"github.com/user/go3270/internal/history"
	"github.com/user/go3270/internal/script"
	"github.com/user/go3270/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	argv, err := shellquote.Split(cfg.Command)
	if err != nil || len(argv) == 0 {
		slog.Error("invalid emulator command", "command", cfg.Command, "error", err)
		os.Exit(1)
	}

	session, err := emulator.Open(argv[0], argv[1:]...)
	if err != nil {
		slog.Error("failed to start emulator", "command", cfg.Command, "error", err)
		os.Exit(1)
	}
	defer session.Close()

	session.SetBlocking(cfg.Blocking)
	session.SetNonBlocking(cfg.NonBlocking)
	if cfg.Unsafe {
		session.SetSafety(emulator.Unsafe)
	}

	if cfg.Serve {
		if err := serve(cfg, session); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runScript(cfg, session); err != nil {
		slog.Error("script failed", "error", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config, session *emulator.Session) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := history.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	fmt.Printf("\ngo3270 running at ws://localhost:%d/ws?token=%s\n\n", cfg.Port, cfg.Token)

	srv := server.New(cfg, session, history.NewRepo(db.SQL()))
	return srv.Start(ctx)
}

// runScript executes script files named on the command line, or stdin
// when none are given, and prints the data lines each action produced.
func runScript(cfg *config.Config, session *emulator.Session) error {
	text, err := readScript(cfg.Args)
	if err != nil {
		return err
	}

	calls, err := script.Parse(text)
	if err != nil {
		return err
	}

	for _, call := range calls {
		lines, err := call.Invoke(session)
		if err != nil {
			return fmt.Errorf("%s: %w", call, err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}
	return nil
}

func readScript(paths []string) (string, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	var sb strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read script %q: %w", path, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
