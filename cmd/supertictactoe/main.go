// Command supertictactoe plays a match in the terminal. Either mark can be
// left to the computer, which plays random legal moves.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/autoplay"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/render"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

func main() {
	var xAuto, oAuto bool
	var logLevel string

	delay := autoplay.DefaultDelay

	flag.BoolVar(&xAuto, "x-auto", false, "let the computer play X")
	flag.BoolVar(&oAuto, "o-auto", false, "let the computer play O")
	flag.DurationVar(&delay, "delay", delay, "pause before a computer move")
	flag.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	flag.Parse()

	logger := initLogger(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	driver := autoplay.New(logger, delay)
	driver.SetEnabled(sttt.X, xAuto)
	driver.SetEnabled(sttt.O, oAuto)

	fmt.Println(`Enter moves as "metaRow metaCol row col" (0-2 each). Commands: auto x, auto o, quit.`)

	s := newSession(logger, os.Stdout, render.New(os.Stdout), driver)
	if err := s.run(ctx, readLines(ctx, os.Stdin)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogger(level string) *slog.Logger {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelWarn
	}

	// stdout belongs to the board
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

// readLines feeds input lines to the session. The channel is closed at EOF.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}
