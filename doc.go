// Package parley provides a dialog orchestration engine for chat bots.
//
// parley lets a bot present multi-page, reaction-paginated content in a
// channel, optionally collect a line of text input in response, and chain
// several such steps into a sequential dialog where each step's output data
// reshapes the next step's content, appends new steps, or splices whole
// additional step sequences in at runtime.
//
// Core components include:
//   - Steps: One interactive unit each - send content, optionally collect
//     input, optionally invoke a handler per input line
//   - Series: An ordered, dynamically extensible sequence of steps sharing
//     threaded data, command history, and cleanup
//   - Page model: Ordered content pages with field capacity, overflow
//     handling, and automatic numbering
//   - Data store: A type-safe key-value record threaded between steps
//
// The chat platform itself is abstracted behind small interfaces (Messenger,
// InputSource, Paginator, Permissions), so the engine runs against any
// adapter, including in-memory fakes in tests.
package parley
