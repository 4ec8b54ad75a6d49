package parley

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parleybot/parley/store"
)

// exitWord ends collection when a requester sends it, case-insensitively.
const exitWord = "exit"

// collect runs the bounded input-collection phase. It is the single
// terminal-outcome operation of the step: exactly one of the select arms
// resolves it, so there is no double-resolution path. Handler invocations
// happen inline, one at a time, in arrival order.
func (s *Step) collect(ctx context.Context, data *store.KVStore) (Result, error) {
	s.state.Store(stateCollecting)

	inbound, unsubscribe := s.env.Inputs.Subscribe(s.req.ChannelID)
	defer unsubscribe()

	timer := time.NewTimer(s.window)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.env.Metrics.stepResolved("canceled")
			return Result{}, ctx.Err()

		case reason := <-s.stopc:
			return s.stopped(ctx, reason)

		case <-timer.C:
			// Inactivity close. Delivery failure of the notice is only
			// logged, never escalated.
			s.notify(ctx, s.translate(KeyInactivityNotice, nil))
			s.env.Metrics.stepResolved(stopTimeout)
			return Result{Data: store.NewKVStore(), Cleanup: s.cleanup, Ended: true}, nil

		case msg, ok := <-inbound:
			if !ok {
				// Source closed underneath us; nothing more will arrive.
				s.env.Metrics.stepResolved("source_closed")
				return Result{Data: store.NewKVStore(), Cleanup: s.cleanup, Ended: true}, nil
			}
			if msg.AuthorID != s.req.AuthorID {
				continue
			}

			s.record(ctx, msg.Content)

			if strings.EqualFold(strings.TrimSpace(msg.Content), exitWord) {
				s.env.Metrics.stepResolved(stopUser)
				if s.series != nil {
					return Result{Data: store.NewKVStore(), Cleanup: s.cleanup, Ended: true}, nil
				}
				return Result{Data: store.NewKVStore(), Cleanup: s.cleanup}, nil
			}

			res, err := s.handler(ctx, msg.Content, data)
			if err != nil {
				s.env.Metrics.stepResolved(stopError)
				return Result{}, fmt.Errorf("step %s: handler failed: %w", s.id, err)
			}

			if res.IsRetry() {
				notice := res.RetryMessage()
				if notice == "" {
					notice = s.translate(KeyInvalidInput, nil)
				}
				s.notify(ctx, notice)
				// Window deliberately not reset on invalid input.
				continue
			}

			out := res.Data
			if out == nil {
				out = store.NewKVStore()
			}
			s.env.Metrics.stepResolved(stopSuccess)
			return Result{Data: out, Directives: res.Directives, Cleanup: s.cleanup}, nil
		}
	}
}

// stopped resolves an externally stopped collection.
func (s *Step) stopped(ctx context.Context, reason string) (Result, error) {
	switch reason {
	case stopUser:
		s.env.Metrics.stepResolved(stopUser)
		if s.series != nil {
			return Result{Data: store.NewKVStore(), Cleanup: s.cleanup, Ended: true}, nil
		}
		return Result{Data: store.NewKVStore(), Cleanup: s.cleanup}, nil

	case stopSuccess:
		s.env.Metrics.stepResolved(stopSuccess)
		return Result{Data: store.NewKVStore(), Cleanup: s.cleanup}, nil

	case stopError:
		s.env.Metrics.stepResolved(stopError)
		return Result{}, fmt.Errorf("step %s: collection stopped with error", s.id)

	case stopTimeout:
		s.notify(ctx, s.translate(KeyInactivityNotice, nil))
		s.env.Metrics.stepResolved(stopTimeout)
		return Result{Data: store.NewKVStore(), Cleanup: s.cleanup, Ended: true}, nil

	default:
		// Transient notice: shown briefly, then deleted, best-effort.
		s.notifyTransient(ctx, reason)
		s.env.Metrics.stepResolved("stopped")
		return Result{Data: store.NewKVStore(), Cleanup: s.cleanup, Ended: true}, nil
	}
}

// record appends a collected input line to the owning series' command
// history and mirrors it to the external history log when configured.
func (s *Step) record(ctx context.Context, line string) {
	if s.series != nil {
		s.series.recordHistory(line)
	}
	if s.env.History != nil {
		seriesID := ""
		if s.series != nil {
			seriesID = s.series.id
		}
		if err := s.env.History.Append(ctx, seriesID, line); err != nil {
			s.env.logger().Warn("step %s: history append failed: %v", s.id, err)
		}
	}
}

// notify sends a user-facing notice, tracked for cleanup. Best-effort.
func (s *Step) notify(ctx context.Context, text string) {
	msg, err := s.env.Messenger.Send(ctx, s.req.ChannelID, Outbound{Text: text})
	if err != nil {
		s.env.logger().Warn("step %s: failed to send notice: %v", s.id, err)
		return
	}
	s.cleanup.Track(msg)
	s.env.Metrics.messageSent()
}

// notifyTransient sends a notice and schedules its deletion after a short
// delay. Best-effort on both sides.
func (s *Step) notifyTransient(ctx context.Context, text string) {
	msg, err := s.env.Messenger.Send(ctx, s.req.ChannelID, Outbound{Text: text})
	if err != nil {
		s.env.logger().Warn("step %s: failed to send transient notice: %v", s.id, err)
		return
	}
	s.env.Metrics.messageSent()
	if err := s.env.Messenger.Delete(ctx, msg, transientNoticeDelay); err != nil {
		s.env.logger().Warn("step %s: failed to delete transient notice %s: %v", s.id, msg.ID, err)
	}
}
