package parley

import (
	"context"
	"errors"
	"time"

	"github.com/parleybot/parley/history"
	"github.com/parleybot/parley/store"
)

var (
	// ErrNilStep is returned when a nil step is handed to a series.
	ErrNilStep = errors.New("step is nil")
	// ErrNilSeries is returned when a nil series is handed to a merge.
	ErrNilSeries = errors.New("series is nil")
	// ErrAlreadySent is returned when a step is sent more than once.
	ErrAlreadySent = errors.New("step has already been sent")
	// ErrAlreadyStarted is returned when a series is started more than once.
	ErrAlreadyStarted = errors.New("series has already been started")
	// ErrNoMessenger is returned when a step is sent without a messenger.
	ErrNoMessenger = errors.New("no messenger configured")

	// ErrMissingPermission marks delivery failures caused by missing channel
	// permissions. Platform adapters should wrap their permission errors with
	// it; a series will not dump its command history for these.
	ErrMissingPermission = errors.New("missing permission")
)

// Message is the handle of a message delivered to a channel.
type Message struct {
	ID        string
	ChannelID string
}

// Outbound is the renderable payload of a single send: plain text,
// page content, or both.
type Outbound struct {
	Text  string
	Pages []*Page
}

// Inbound is a message posted to a channel by a user.
type Inbound struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
}

// Request identifies the channel a dialog runs in and the user whose
// input it collects.
type Request struct {
	ChannelID string
	AuthorID  string
}

// Messenger delivers and deletes messages on the chat platform.
type Messenger interface {
	// Send delivers text and/or page content to a channel.
	Send(ctx context.Context, channelID string, out Outbound) (Message, error)

	// Delete removes a previously sent message, optionally after a delay.
	// A zero delay deletes immediately.
	Delete(ctx context.Context, msg Message, after time.Duration) error
}

// InputSource delivers messages posted to a channel. The returned cancel
// function ends the subscription and must always be called.
type InputSource interface {
	Subscribe(channelID string) (<-chan Inbound, func())
}

// Paginator attaches page-flip affordances to a sent message. The component
// handles left/right clicks against the registered page list on its own.
type Paginator interface {
	Register(messageID string, pages []*Page) error
}

// Permissions answers whether pagination controls can be attached in a
// channel (reaction add + read history on the platform side).
type Permissions interface {
	CanPaginate(channelID string) bool
}

// Translator resolves locale strings. Implementations fall back to a
// default locale when the requested one has no entry.
type Translator interface {
	Translate(locale, key string, params map[string]string) string
}

// BusyTracker blocks unrelated commands in a channel while a step is
// collecting input.
type BusyTracker interface {
	MarkBusy(channelID string)
	ClearBusy(channelID string)
}

// Logger provides a simple interface for dialog logging
type Logger interface {
	// Debug logs a message at debug level
	Debug(format string, args ...interface{})

	// Info logs a message at info level
	Info(format string, args ...interface{})

	// Warn logs a message at warning level
	Warn(format string, args ...interface{})

	// Error logs a message at error level
	Error(format string, args ...interface{})
}

// Env bundles the platform collaborators a dialog needs. Messenger is
// required for sending; everything else is optional and degrades to a
// sensible default when nil.
type Env struct {
	Messenger   Messenger
	Inputs      InputSource
	Paginator   Paginator
	Permissions Permissions
	Translator  Translator
	Busy        BusyTracker
	Logger      Logger
	Metrics     *Metrics
	History     history.Log
}

func (e *Env) logger() Logger {
	if e == nil || e.Logger == nil {
		return NewDefaultLogger()
	}
	return e.Logger
}

func (e *Env) translate(locale, key string, params map[string]string) string {
	if e == nil || e.Translator == nil {
		return key
	}
	return e.Translator.Translate(locale, key, params)
}

func (e *Env) canPaginate(channelID string) bool {
	if e == nil || e.Permissions == nil {
		return true
	}
	return e.Permissions.CanPaginate(channelID)
}

// Handler processes one collected input line against the threaded data and
// produces the data for the next step. Returning an error is fatal and stops
// the dialog; recoverable validation failures are expressed with Retry.
type Handler func(ctx context.Context, input string, data *store.KVStore) (HandlerResult, error)

// HandlerResult is the outcome of a handler invocation: either the next
// threaded data plus optional directives (Ok), or a request to re-prompt the
// user and keep collecting (Retry).
type HandlerResult struct {
	// Data is threaded into the next step.
	Data *store.KVStore
	// Directives instruct the owning series to reshape itself.
	Directives []Directive

	retry        bool
	retryMessage string
}

// Ok builds a successful handler result. A nil data store is threaded as an
// empty record.
func Ok(data *store.KVStore, directives ...Directive) HandlerResult {
	return HandlerResult{Data: data, Directives: directives}
}

// Retry builds a recoverable validation failure: message is shown to the
// user and collection continues with the window unchanged. An empty message
// falls back to the localized default.
func Retry(message string) HandlerResult {
	return HandlerResult{retry: true, retryMessage: message}
}

// IsRetry reports whether the result asks to keep collecting.
func (r HandlerResult) IsRetry() bool { return r.retry }

// RetryMessage returns the user-facing validation message, if any.
func (r HandlerResult) RetryMessage() string { return r.retryMessage }

// Result is what a resolved step hands back to its caller.
type Result struct {
	// Data is the threaded data for the next step.
	Data *store.KVStore
	// Directives are series-reshaping instructions from the handler.
	Directives []Directive
	// Cleanup holds every message this step caused to be sent.
	Cleanup *CleanupRegistry
	// Ended signals the owning series to stop processing further steps.
	Ended bool
}

// Directive is a series-reshaping instruction carried on a handler result.
// The sequencing engine matches on the concrete type.
type Directive interface {
	isDirective()
}

// SetText replaces the following step's text before it is sent. Multiple
// lines mean multiple messages with page content attached to the last.
type SetText struct {
	Text []string
}

// ClearPages removes all pages from the following step before it is sent.
type ClearPages struct{}

// SetEmbed mutates the following step's pages before it is sent.
// Empty fields are left untouched; Options are appended.
type SetEmbed struct {
	Title       string
	Author      string
	Description string
	Options     []Option
}

// Option is one field to add to a page.
type Option struct {
	Title  string
	Body   string
	Inline bool
}

// AppendSteps appends steps to the owning series. They run after every step
// already queued.
type AppendSteps struct {
	Steps []*Step
}

// MergeSeries splices whole series into the owning series at the tail.
type MergeSeries struct {
	Series []*Series
}

// Terminate stops the owning series immediately after the current step.
type Terminate struct{}

func (SetText) isDirective()     {}
func (ClearPages) isDirective()  {}
func (SetEmbed) isDirective()    {}
func (AppendSteps) isDirective() {}
func (MergeSeries) isDirective() {}
func (Terminate) isDirective()   {}

// Translation keys the engine resolves through the Translator.
const (
	// KeyInactivityNotice is sent when a collection window expires.
	KeyInactivityNotice = "dialog.closed_inactivity"

	// KeyInvalidInput is the default notice for recoverable validation
	// failures that carry no message of their own.
	KeyInvalidInput = "dialog.invalid_input"

	// KeyNoPagination is appended to page footers when pagination controls
	// cannot be attached.
	KeyNoPagination = "dialog.missing_pagination"
)

// DefaultLocale is the fallback locale tag.
const DefaultLocale = "en"

const (
	// DefaultMaxPerPage is the default field capacity of a page.
	DefaultMaxPerPage = 7
	// MaxPerPageLimit is the highest allowed field capacity.
	MaxPerPageLimit = 10

	// DefaultCollectWindow bounds the input-collection phase.
	DefaultCollectWindow = 90 * time.Second

	// transientNoticeDelay is how long a transient stop notice stays
	// visible before deletion.
	transientNoticeDelay = 5 * time.Second
)

// Blank marks an intentionally empty field title or body.
const Blank = "​"

// Collection stop reasons. Anything else passed to Step.Stop is shown to
// the user as a transient notice.
const (
	stopUser    = "user"
	stopSuccess = "success"
	stopError   = "error"
	stopTimeout = "timeout"
)
