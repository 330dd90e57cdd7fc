// Package scroller drives a lazily loaded, newest-at-bottom history container
// to its top until no more content arrives.
package scroller

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStopped is returned when the run was cancelled before the top was reached.
	ErrStopped = errors.New("scrolling stopped before reaching the top")
	// ErrIterationCap is returned when MaxIterations or MaxDuration ran out first.
	ErrIterationCap = errors.New("scrolling gave up before content stopped growing")
)

// Target is the scrollable history container.
type Target interface {
	ScrollToTop() error
	ScrollHeight() (int64, error)
}

// Options tune the convergence loop.
type Options struct {
	Settle        time.Duration // wait after each scroll for lazy loads
	NoGrowthLimit int           // consecutive non-growing checks that count as "top reached"
	MaxIterations int           // 0 = unbounded
	MaxDuration   time.Duration // 0 = unbounded

	// Sleep waits between scrolling and measuring. It is not interrupted by
	// cancellation. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Now defaults to time.Now; only read when MaxDuration is set.
	Now func() time.Time
}

// DefaultOptions returns a 1.5s settle delay and a no-growth limit of 2.
func DefaultOptions() Options {
	return Options{
		Settle:        1500 * time.Millisecond,
		NoGrowthLimit: 2,
	}
}

// Stage identifies a progress notification.
type Stage int

const (
	StageStarted Stage = iota
	StageGrowing
	StageReachedTop
)

func (s Stage) String() string {
	switch s {
	case StageStarted:
		return "started"
	case StageGrowing:
		return "growing"
	case StageReachedTop:
		return "reached_top"
	}
	return "unknown"
}

// Progress is an advisory notification sent on each state change.
type Progress struct {
	Stage     Stage
	Iteration int
	Height    int64
}

// Result describes how the loop ended.
type Result struct {
	Iterations    int
	InitialHeight int64
	FinalHeight   int64
	Converged     bool
	Stopped       bool
}

// Converge scrolls target to the top until its scroll height has not grown
// for NoGrowthLimit consecutive checks.
//
// ctx is the run's cancellation token. It is checked once at the top of every
// iteration; a cancelled run returns ErrStopped with Result.Stopped set.
// notify may be nil.
func Converge(ctx context.Context, target Target, opts Options, notify func(Progress)) (Result, error) {
	if opts.Settle <= 0 {
		opts.Settle = DefaultOptions().Settle
	}
	if opts.NoGrowthLimit < 1 {
		opts.NoGrowthLimit = DefaultOptions().NoGrowthLimit
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notify == nil {
		notify = func(Progress) {}
	}

	var res Result
	previous, err := target.ScrollHeight()
	if err != nil {
		return res, fmt.Errorf("failed to read scroll height: %w", err)
	}
	res.InitialHeight = previous
	res.FinalHeight = previous
	notify(Progress{Stage: StageStarted, Height: previous})

	start := opts.Now()
	noGrowth := 0
	for {
		if ctx.Err() != nil {
			res.Stopped = true
			return res, ErrStopped
		}
		if opts.MaxIterations > 0 && res.Iterations >= opts.MaxIterations {
			return res, fmt.Errorf("%w: %d iterations", ErrIterationCap, res.Iterations)
		}
		if opts.MaxDuration > 0 && opts.Now().Sub(start) >= opts.MaxDuration {
			return res, fmt.Errorf("%w: %s elapsed", ErrIterationCap, opts.MaxDuration)
		}

		res.Iterations++
		if err := target.ScrollToTop(); err != nil {
			return res, fmt.Errorf("failed to scroll to top: %w", err)
		}

		opts.Sleep(opts.Settle)

		height, err := target.ScrollHeight()
		if err != nil {
			return res, fmt.Errorf("failed to read scroll height: %w", err)
		}

		if height > previous {
			previous = height
			res.FinalHeight = height
			noGrowth = 0
			notify(Progress{Stage: StageGrowing, Iteration: res.Iterations, Height: height})
			continue
		}

		noGrowth++
		if noGrowth >= opts.NoGrowthLimit {
			res.Converged = true
			notify(Progress{Stage: StageReachedTop, Iteration: res.Iterations, Height: previous})
			return res, nil
		}
	}
}
