package parley

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/parleybot/parley/store"
)

// Series is an ordered, dynamically extensible sequence of steps sharing
// threaded data, command history, and one cleanup registry. The step list
// may grow during traversal: the engine walks it by index and always
// advances to index+1 relative to the position most recently executed, so
// steps appended while processing index i run after i and before anything
// appended later.
type Series struct {
	id  string
	env *Env

	steps    []*Step
	overlays map[int][]*store.KVStore
	history  []string
	cleanup  *CleanupRegistry
	locale   string
	initial  *store.KVStore

	started atomic.Bool
}

// NewSeries creates a series from an initial step list and initial threaded
// data. The data may carry a "locale" key, which is applied to every member
// step. Every step is re-parented onto the new series.
func NewSeries(env *Env, steps []*Step, initial *store.KVStore) (*Series, error) {
	s := &Series{
		id:       uuid.NewString(),
		env:      env,
		overlays: make(map[int][]*store.KVStore),
		cleanup:  NewCleanupRegistry(),
		initial:  initial,
	}

	if initial != nil {
		if locale, err := store.Get[string](initial, "locale"); err == nil {
			s.locale = locale
		}
	}

	for _, step := range steps {
		if err := s.Add(step, nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ID returns the series' unique identifier.
func (s *Series) ID() string { return s.id }

// Len returns the current number of steps.
func (s *Series) Len() int { return len(s.steps) }

// History returns the raw collected input lines, for diagnostics.
func (s *Series) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Cleanup returns the series' cleanup registry.
func (s *Series) Cleanup() *CleanupRegistry { return s.cleanup }

func (s *Series) recordHistory(line string) {
	s.history = append(s.history, line)
}

// Add appends one step, optionally attaching overlay data at the insertion
// position. A nil step fails fast with ErrNilStep and mutates nothing.
func (s *Series) Add(step *Step, overlay *store.KVStore) error {
	if step == nil {
		return ErrNilStep
	}

	step.series = s
	if s.locale != "" {
		step.locale = s.locale
	}
	s.steps = append(s.steps, step)

	if overlay != nil {
		pos := len(s.steps) - 1
		s.overlays[pos] = append(s.overlays[pos], overlay)
	}
	return nil
}

// Merge appends all of other's steps to this series, rebinding locale and
// series back-references, relocating other's initial data and overlay data
// to the positions they will occupy after the append, and draining other's
// cleanup registry into this one. A nil series fails fast with ErrNilSeries
// and mutates nothing.
func (s *Series) Merge(other *Series) error {
	if other == nil {
		return ErrNilSeries
	}
	if other == s {
		return errors.New("cannot merge a series into itself")
	}

	base := len(s.steps)

	if other.initial != nil && other.initial.Count() > 0 {
		s.overlays[base] = append(s.overlays[base], other.initial)
	}
	for idx, list := range other.overlays {
		s.overlays[base+idx] = append(s.overlays[base+idx], list...)
	}

	for _, step := range other.steps {
		step.series = s
		if s.locale != "" {
			step.locale = s.locale
		}
		s.steps = append(s.steps, step)
	}

	s.cleanup.Merge(other.cleanup)
	s.history = append(s.history, other.history...)
	return nil
}

// Start walks the steps from index 0, threading data between them. It
// returns the final threaded data on success, nil when the series was ended
// early by a termination signal, and a series-tagged error on any fatal
// failure. The series terminates exactly once; every termination performs a
// full cleanup of tracked messages.
func (s *Series) Start(ctx context.Context) (*store.KVStore, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}
	if len(s.steps) == 0 {
		return nil, s.end(ctx, fmt.Errorf("no steps to execute"))
	}

	s.env.logger().Debug("series %s: starting with %d steps", s.id, len(s.steps))

	data := s.initial
	if data == nil {
		data = store.NewKVStore()
	}

	var pending []Directive
	for i := 0; i < len(s.steps); i++ {
		step := s.steps[i]

		// Overlay data registered at this position merges in registration
		// order before the step runs.
		for _, overlay := range s.overlays[i] {
			if _, err := data.Merge(overlay, store.Overwrite); err != nil {
				return nil, s.end(ctx, err)
			}
		}

		// Display mutations from the previous step apply before sending.
		if err := applyDisplayDirectives(step, pending); err != nil {
			return nil, s.end(ctx, err)
		}
		pending = nil

		s.env.logger().Debug("series %s: executing step %d/%d", s.id, i+1, len(s.steps))
		res, err := step.Send(ctx, data)
		// The step's registry is drained even on failure so termination can
		// purge everything the step managed to send.
		s.cleanup.Merge(step.cleanup)
		if err != nil {
			return nil, s.end(ctx, err)
		}

		if res.Ended {
			s.env.logger().Debug("series %s: step %d signaled termination", s.id, i+1)
			return nil, s.end(ctx, nil)
		}

		terminated := false
		for _, d := range res.Directives {
			switch d := d.(type) {
			case AppendSteps:
				for _, next := range d.Steps {
					if err := s.Add(next, nil); err != nil {
						return nil, s.end(ctx, err)
					}
				}
			case MergeSeries:
				for _, next := range d.Series {
					if err := s.Merge(next); err != nil {
						return nil, s.end(ctx, err)
					}
				}
			case Terminate:
				terminated = true
			default:
				pending = append(pending, d)
			}
		}
		if terminated {
			return nil, s.end(ctx, nil)
		}

		data = res.Data
		if data == nil {
			data = store.NewKVStore()
		}
	}

	if err := s.end(ctx, nil); err != nil {
		return nil, err
	}
	return data, nil
}

// end performs the single termination of the series: full message cleanup,
// error tagging, and history diagnostics.
func (s *Series) end(ctx context.Context, cause error) error {
	s.cleanup.Purge(ctx, s.env.Messenger, s.env.logger())

	if cause == nil {
		s.env.logger().Info("series %s: completed", s.id)
		s.env.Metrics.seriesFinished("ok")
		return nil
	}

	if !errors.Is(cause, ErrMissingPermission) && len(s.history) > 0 {
		s.env.logger().Error("series %s: command history: %s", s.id, strings.Join(s.history, " | "))
	}
	s.env.Metrics.seriesFinished("error")
	return fmt.Errorf("series %s: %w", s.id, cause)
}

// applyDisplayDirectives mutates a step's text and pages before it is sent.
func applyDisplayDirectives(step *Step, pending []Directive) error {
	for _, d := range pending {
		switch d := d.(type) {
		case SetText:
			step.SetText(d.Text...)
		case ClearPages:
			step.RemoveAllEmbeds()
		case SetEmbed:
			if d.Title != "" {
				step.SetTitle(d.Title)
			}
			if d.Author != "" {
				step.SetAuthor(d.Author)
			}
			if d.Description != "" {
				step.SetDescription(d.Description)
			}
			for _, opt := range d.Options {
				if err := step.AddOption(opt.Title, opt.Body, opt.Inline); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
