// Package event provides the activity event model and a synchronous pub-sub
// bus that distributes classified assistant activity to interested components.
//
// Producers (the pattern classifier, the hook log reader) publish
// [ActivityEvent] values; consumers (the permission tracker, the recorder,
// CLI printers) subscribe by [Kind] or to everything with [Bus.SubscribeAll].
//
// # Kinds
//
//   - [TaskStarted]: the assistant began working
//   - [TaskCompleted]: the assistant reported finished work
//   - [AttentionRequired]: the assistant is waiting on the user
//   - [Idle]: the assistant is ready for the next instruction
//
// # Dispatch
//
// [Bus.Publish] runs handlers synchronously on the publishing goroutine, in
// registration order, kind-specific handlers before wildcard ones. Handler
// panics are recovered and logged so one faulty consumer cannot stop the
// others.
//
// # Recorder
//
// [Recorder] keeps a bounded window of recent events for inspection.
package event
