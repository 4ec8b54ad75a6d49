package parley

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/parleybot/parley/store"
)

// Step states. A step moves Idle -> Sending -> (Displaying | Collecting)
// -> Resolved; Resolved is terminal and reached exactly once.
const (
	stateIdle int32 = iota
	stateSending
	stateCollecting
	stateResolved
)

// SplitOptions controls how oversized step text is broken into several
// messages. Zero values mean the defaults.
type SplitOptions struct {
	// MaxLength is the longest text one message may carry.
	MaxLength int
	// Separator is the preferred boundary to split at.
	Separator string
}

const defaultSplitLength = 2000

// chunks breaks text at separator boundaries so every piece fits MaxLength.
// A piece with no separator inside the limit is cut hard.
func (o SplitOptions) chunks(text string) []string {
	max := o.MaxLength
	if max <= 0 {
		max = defaultSplitLength
	}
	sep := o.Separator
	if sep == "" {
		sep = "\n"
	}

	if len(text) <= max {
		return []string{text}
	}

	var out []string
	for len(text) > max {
		cut := strings.LastIndex(text[:max], sep)
		if cut <= 0 {
			cut = max
		}
		out = append(out, strings.TrimSuffix(text[:cut], sep))
		text = strings.TrimPrefix(text[cut:], sep)
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// Step is one interactive unit: it sends content to a channel, optionally
// attaches pagination controls, and optionally runs a bounded
// input-collection phase invoking its handler per input line.
//
// A step is created once, configured via chained mutators, then sent
// exactly once.
type Step struct {
	id  string
	env *Env
	req Request

	model   *PageModel
	text    []string
	split   SplitOptions
	handler Handler
	locale  string
	window  time.Duration

	cleanup *CleanupRegistry
	series  *Series

	state    atomic.Int32
	stopc    chan string
	stopOnce sync.Once
}

// StepOption configures a new step.
type StepOption func(*stepConfig)

type stepConfig struct {
	text       []string
	handler    Handler
	maxPerPage int
	numbered   bool
	locale     string
	split      SplitOptions
	window     time.Duration
	color      int
	title      string
	desc       string
}

// WithText sets the step's plain text. Several lines mean several messages,
// with the page content attached only to the last one.
func WithText(lines ...string) StepOption {
	return func(c *stepConfig) { c.text = lines }
}

// WithHandler sets the handler invoked per collected input line. Without a
// handler the step resolves immediately after sending.
func WithHandler(handler Handler) StepOption {
	return func(c *stepConfig) { c.handler = handler }
}

// WithMaxPerPage sets the per-page field capacity (1-10, default 7).
func WithMaxPerPage(n int) StepOption {
	return func(c *stepConfig) { c.maxPerPage = n }
}

// WithNumbering toggles global option numbering (default on).
func WithNumbering(numbered bool) StepOption {
	return func(c *stepConfig) { c.numbered = numbered }
}

// WithLocale sets the locale tag used for this step's translations.
func WithLocale(locale string) StepOption {
	return func(c *stepConfig) { c.locale = locale }
}

// WithSplitOptions sets the split policy for oversized text.
func WithSplitOptions(split SplitOptions) StepOption {
	return func(c *stepConfig) { c.split = split }
}

// WithCollectWindow overrides the input-collection window (default 90s).
func WithCollectWindow(window time.Duration) StepOption {
	return func(c *stepConfig) { c.window = window }
}

// WithColor sets the accent color applied to every page.
func WithColor(color int) StepOption {
	return func(c *stepConfig) { c.color = color }
}

// WithPage seeds the initial page's title and description.
func WithPage(title, description string) StepOption {
	return func(c *stepConfig) { c.title, c.desc = title, description }
}

// NewStep creates a step bound to a channel and requester.
func NewStep(env *Env, req Request, opts ...StepOption) *Step {
	cfg := stepConfig{numbered: true, window: DefaultCollectWindow}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Step{
		id:      uuid.NewString(),
		env:     env,
		req:     req,
		model:   newPageModel(cfg.maxPerPage, cfg.numbered),
		text:    cfg.text,
		split:   cfg.split,
		handler: cfg.handler,
		locale:  cfg.locale,
		window:  cfg.window,
		cleanup: NewCleanupRegistry(),
		stopc:   make(chan string, 1),
	}
	if cfg.title != "" || cfg.desc != "" {
		s.model.AddPage(cfg.title, cfg.desc)
	}
	if cfg.color != 0 {
		s.model.SetColor(cfg.color)
	}
	return s
}

// ID returns the step's unique identifier.
func (s *Step) ID() string { return s.id }

// Model returns the step's page model.
func (s *Step) Model() *PageModel { return s.model }

// Cleanup returns the step's cleanup registry.
func (s *Step) Cleanup() *CleanupRegistry { return s.cleanup }

// AddOption appends one field to the page model, overflowing onto a new
// page at capacity.
func (s *Step) AddOption(title, body string, inline bool) error {
	return s.model.AddOption(title, body, inline)
}

// AddPage appends a fresh page with the given title and description.
func (s *Step) AddPage(title, description string) *Step {
	s.model.AddPage(title, description)
	return s
}

// SetText replaces the step's plain text.
func (s *Step) SetText(lines ...string) *Step {
	s.text = lines
	return s
}

// SetTitle applies a title to every page.
func (s *Step) SetTitle(title string) *Step {
	s.model.SetTitle(title)
	return s
}

// SetDescription applies a description to every page.
func (s *Step) SetDescription(description string) *Step {
	s.model.SetDescription(description)
	return s
}

// SetAuthor applies an author line to every page.
func (s *Step) SetAuthor(author string) *Step {
	s.model.SetAuthor(author)
	return s
}

// SetFooter applies a custom footer to every page, disabling the automatic
// "Page i/N" footers.
func (s *Step) SetFooter(footer string) *Step {
	s.model.SetFooter(footer)
	return s
}

// RemoveAllEmbeds clears all pages and resets the pagination position.
func (s *Step) RemoveAllEmbeds() *Step {
	s.model.RemoveAllEmbeds()
	return s
}

// Stop ends an active collection phase with the given reason. Reasons other
// than the engine's own are shown to the user as a transient notice. Only
// the first stop per step has any effect.
func (s *Step) Stop(reason string) {
	s.stopOnce.Do(func() {
		s.stopc <- reason
	})
}

func (s *Step) translate(key string, params map[string]string) string {
	locale := s.locale
	if locale == "" {
		locale = DefaultLocale
	}
	return s.env.translate(locale, key, params)
}

// Send delivers the step's content and, when a handler is configured, runs
// the input-collection phase. It resolves exactly once: with a Result, or
// with a propagated fatal error. Sending a step twice returns
// ErrAlreadySent.
func (s *Step) Send(ctx context.Context, data *store.KVStore) (Result, error) {
	if s.env == nil || s.env.Messenger == nil {
		return Result{}, ErrNoMessenger
	}
	if !s.state.CompareAndSwap(stateIdle, stateSending) {
		return Result{}, ErrAlreadySent
	}
	defer s.state.Store(stateResolved)

	if data == nil {
		data = store.NewKVStore()
	}
	s.env.Metrics.stepStarted()

	pages := s.model.Pages()
	canPaginate := s.env.canPaginate(s.req.ChannelID)
	if len(pages) > 1 && !canPaginate {
		s.model.SetFooterNote(s.translate(KeyNoPagination, nil))
	}

	last, err := s.deliver(ctx, pages)
	if err != nil {
		s.env.Metrics.stepResolved("send_error")
		return Result{}, err
	}

	if len(pages) > 1 && canPaginate && s.env.Paginator != nil {
		if err := s.env.Paginator.Register(last.ID, pages); err != nil {
			s.env.logger().Warn("step %s: failed to register pagination on %s: %v", s.id, last.ID, err)
		}
	}

	if s.handler == nil {
		// Displaying-only path: no busy marking, no collection.
		s.env.Metrics.stepResolved("display")
		return Result{Data: store.NewKVStore(), Cleanup: s.cleanup}, nil
	}

	if s.env.Inputs == nil {
		return Result{}, fmt.Errorf("step %s: handler configured but no input source", s.id)
	}

	if s.env.Busy != nil {
		s.env.Busy.MarkBusy(s.req.ChannelID)
		defer s.env.Busy.ClearBusy(s.req.ChannelID)
	}

	started := time.Now()
	defer func() {
		s.env.Metrics.collectFinished(time.Since(started))
	}()

	return s.collect(ctx, data)
}

// deliver sends the step's text and pages, attaching the page content only
// to the final message. It returns the last sent message.
func (s *Step) deliver(ctx context.Context, pages []*Page) (Message, error) {
	chunks := s.text
	if len(chunks) == 1 {
		chunks = s.split.chunks(chunks[0])
	}
	if len(chunks) == 0 {
		if len(pages) == 0 {
			return Message{}, fmt.Errorf("step %s: nothing to send", s.id)
		}
		chunks = []string{""}
	}

	var last Message
	for i, chunk := range chunks {
		out := Outbound{Text: chunk}
		if i == len(chunks)-1 {
			out.Pages = pages
		}

		msg, err := s.env.Messenger.Send(ctx, s.req.ChannelID, out)
		if err != nil {
			return Message{}, fmt.Errorf("step %s: send failed: %w", s.id, err)
		}
		s.cleanup.Track(msg)
		s.env.Metrics.messageSent()
		last = msg
	}
	return last, nil
}
