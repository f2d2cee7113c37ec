package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/autoplay"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/render"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

type autoMove struct {
	generation int
	mark       sttt.Mark
	move       sttt.Move
}

// session owns the game. Typed and computer moves both reach it through run,
// so the game is only touched from one goroutine.
type session struct {
	logger   *slog.Logger
	out      io.Writer
	renderer *render.Renderer
	driver   *autoplay.Driver

	game *sttt.Game

	autoMoves chan autoMove
	pending   *autoplay.Task
	// generation grows with every change of position; computer moves picked
	// for an older one are dropped.
	generation int
}

func newSession(logger *slog.Logger, out io.Writer, renderer *render.Renderer, driver *autoplay.Driver) *session {
	return &session{
		logger:    logger.With("component", "session"),
		out:       out,
		renderer:  renderer,
		driver:    driver,
		game:      sttt.New(),
		autoMoves: make(chan autoMove, 1),
	}
}

// run plays until the game ends, the player quits or ctx is done.
func (that *session) run(ctx context.Context, lines <-chan string) error {
	defer that.cancelPending()

	if err := that.renderer.Render(that.game); err != nil {
		return err
	}

	that.schedule(ctx)

	for {
		var (
			done bool
			err  error
		)

		// without input only the computer can move the game on
		if lines == nil && !that.driver.IsEnabled(that.game.CurrentTurn()) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}

			done, err = that.handleLine(ctx, line)

		case auto := <-that.autoMoves:
			if auto.generation != that.generation || auto.mark != that.game.CurrentTurn() {
				that.logger.Debug("dropped stale computer move", "mark", auto.mark.String(), "move", auto.move.String())
				continue
			}

			done, err = that.play(ctx, auto.move)
		}

		if err != nil || done {
			return err
		}
	}
}

func (that *session) handleLine(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(strings.ToLower(line))

	switch {
	case line == "":
		return false, nil
	case line == "q" || line == "quit":
		return true, nil
	case strings.HasPrefix(line, "auto "):
		return false, that.toggleAuto(ctx, strings.TrimSpace(strings.TrimPrefix(line, "auto ")))
	}

	move, err := render.ParseMove(line)
	if err != nil {
		_, err = fmt.Fprintf(that.out, "%v\n", err)
		return false, err
	}

	return that.play(ctx, move)
}

func (that *session) toggleAuto(ctx context.Context, text string) error {
	var mark sttt.Mark
	if err := mark.UnmarshalText([]byte(text)); err != nil || !mark.IsPlayer() {
		_, err = fmt.Fprintf(that.out, "unknown mark %q\n", text)
		return err
	}

	enabled := !that.driver.IsEnabled(mark)
	that.driver.SetEnabled(mark, enabled)

	state := "off"
	if enabled {
		state = "on"
	}

	if _, err := fmt.Fprintf(that.out, "computer plays %s: %s\n", mark, state); err != nil {
		return err
	}

	that.generation++
	that.cancelPending()
	that.schedule(ctx)

	return nil
}

// play applies the move. A refused move only prints a message; the board
// stays as it was drawn.
func (that *session) play(ctx context.Context, move sttt.Move) (bool, error) {
	if !that.game.PlayMove(move) {
		_, err := fmt.Fprintf(that.out, "illegal move %s\n", move)
		return false, err
	}

	that.generation++
	that.cancelPending()

	if err := that.renderer.Render(that.game); err != nil {
		return false, err
	}

	if that.game.Outcome().IsTerminal() {
		return true, nil
	}

	that.schedule(ctx)

	return false, nil
}

func (that *session) schedule(ctx context.Context) {
	generation := that.generation

	task, ok := that.driver.Schedule(ctx, that.game, func(ctx context.Context, mark sttt.Mark, move sttt.Move) {
		select {
		case that.autoMoves <- autoMove{generation: generation, mark: mark, move: move}:
		case <-ctx.Done():
		}
	})
	if ok {
		that.pending = task
	}
}

func (that *session) cancelPending() {
	if that.pending != nil {
		that.pending.Stop()
		that.pending = nil
	}
}
