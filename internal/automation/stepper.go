package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/dslr-remote/internal/model"
)

// Stepper walks a selector whose only controls are increase and decrease
// buttons and a label showing the current value.
type Stepper struct {
	Name     string
	Values   []string
	Current  func(ctx context.Context) (string, error)
	Increase func(ctx context.Context) error
	Decrease func(ctx context.Context) error

	// Settle is the pause after each step before the label is re-read.
	Settle time.Duration
	// MaxRounds bounds how often the step count is recomputed when the app
	// drops clicks.
	MaxRounds int
}

func (s *Stepper) indexOf(v string) int {
	for i, x := range s.Values {
		if x == v {
			return i
		}
	}
	return -1
}

func (s *Stepper) currentIndex(ctx context.Context) (int, string, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return -1, "", err
	}
	idx := s.indexOf(cur)
	if idx < 0 {
		return -1, cur, fmt.Errorf("%w: %s shows unrecognised value %q", model.ErrControlNotFound, s.Name, cur)
	}
	return idx, cur, nil
}

// Step presses once in direction dir (positive increases). At the first or
// last value the step is a no-op and pressed is false.
func (s *Stepper) Step(ctx context.Context, dir int) (pressed bool, err error) {
	idx, _, err := s.currentIndex(ctx)
	if err != nil {
		return false, err
	}
	switch {
	case dir > 0:
		if idx >= len(s.Values)-1 {
			return false, nil
		}
		err = s.Increase(ctx)
	case dir < 0:
		if idx <= 0 {
			return false, nil
		}
		err = s.Decrease(ctx)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, sleepCtx(ctx, s.Settle)
}

// Adjust moves the selector to requested one step at a time.
func (s *Stepper) Adjust(ctx context.Context, requested string) error {
	target := s.indexOf(requested)
	if target < 0 {
		return fmt.Errorf("%w: %q is not a %s value", model.ErrInvalidValue, requested, s.Name)
	}
	rounds := s.MaxRounds
	if rounds < 1 {
		rounds = 1
	}
	for round := 0; round < rounds; round++ {
		idx, _, err := s.currentIndex(ctx)
		if err != nil {
			return err
		}
		steps := target - idx
		if steps == 0 {
			return nil
		}
		dir := 1
		if steps < 0 {
			dir, steps = -1, -steps
		}
		for i := 0; i < steps; i++ {
			pressed, err := s.Step(ctx, dir)
			if err != nil {
				return err
			}
			if !pressed {
				break
			}
		}
	}
	_, cur, err := s.currentIndex(ctx)
	if err != nil {
		return err
	}
	if cur != requested {
		return fmt.Errorf("%w: %s stuck at %q after %d rounds, wanted %q", model.ErrInvalidOperation, s.Name, cur, rounds, requested)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
