package autoplay

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

const DefaultDelay = 1500 * time.Millisecond

// Board - read side of a game the driver picks moves from.
type Board interface {
	CurrentTurn() sttt.Mark
	Outcome() sttt.Outcome
	LegalMoves() []sttt.Move
}

// ApplyFunc plays a scheduled move through the same path as manual input. It
// runs on the timer goroutine and must check that mark is still to move.
type ApplyFunc func(ctx context.Context, mark sttt.Mark, move sttt.Move)

// Driver - plays random legal moves for the marks it is enabled for.
type Driver struct {
	logger *slog.Logger

	mu      sync.Mutex
	delay   time.Duration
	rng     *rand.Rand
	enabled map[sttt.Mark]bool
}

type Option func(*Driver)

// WithRand - replaces the random source, mostly for tests.
func WithRand(rng *rand.Rand) Option {
	return func(that *Driver) {
		that.rng = rng
	}
}

func New(logger *slog.Logger, delay time.Duration, opts ...Option) *Driver {
	if delay < 0 {
		delay = DefaultDelay
	}

	driver := &Driver{
		logger:  logger.With("component", "autoplay"),
		delay:   delay,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint: gosec // move choice only
		enabled: make(map[sttt.Mark]bool),
	}

	for _, opt := range opts {
		opt(driver)
	}

	return driver
}

func (that *Driver) SetEnabled(mark sttt.Mark, enabled bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.enabled[mark] = enabled
}

func (that *Driver) IsEnabled(mark sttt.Mark) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return mark.IsPlayer() && that.enabled[mark]
}

func (that *Driver) SetDelay(delay time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.delay = delay
}

func (that *Driver) Delay() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.delay
}

// Pick - chooses one of moves uniformly at random.
func (that *Driver) Pick(moves []sttt.Move) (sttt.Move, bool) {
	if len(moves) == 0 {
		return sttt.Move{}, false
	}

	that.mu.Lock()
	idx := that.rng.IntN(len(moves))
	that.mu.Unlock()

	return moves[idx], true
}

// Task - a move waiting for its delay to pass.
type Task struct {
	Mark  sttt.Mark
	Move  sttt.Move
	timer *time.Timer
}

// Stop - cancels the task. It reports false if the task already fired.
func (that *Task) Stop() bool {
	return that.timer.Stop()
}

// Schedule - picks a move for the mark to move and plays it after the delay.
// Nothing is scheduled when the game is over or the driver is off for that mark.
// The caller must own board for the duration of the call.
func (that *Driver) Schedule(ctx context.Context, board Board, apply ApplyFunc) (*Task, bool) {
	log := that.logger.With("method", "Schedule")

	mark := board.CurrentTurn()
	if board.Outcome().IsTerminal() || !that.IsEnabled(mark) {
		return nil, false
	}

	move, ok := that.Pick(board.LegalMoves())
	if !ok {
		return nil, false
	}

	task := &Task{Mark: mark, Move: move}
	task.timer = time.AfterFunc(that.Delay(), func() {
		if ctx.Err() != nil {
			return
		}

		// the switch may have been turned off while waiting
		if !that.IsEnabled(mark) {
			log.Debug("auto-play disabled before the move", "mark", mark.String())
			return
		}

		apply(ctx, mark, move)
	})

	log.Debug("auto-play scheduled", "mark", mark.String(), "move", move.String())

	return task, true
}
