// Package permission tracks outstanding "attention required" episodes raised
// by the assistant and resolves them.
//
// A [Tracker] subscribes to the event bus. Every [event.AttentionRequired]
// event opens an active [Request] whose [RequestType] is inferred from the
// event's source and details. A request ends in exactly one terminal
// [Resolution]:
//
//   - [ResolutionApproved]: a task.completed event arrived from the same
//     source, or [Tracker.Approve] was called
//   - [ResolutionDenied]: [Tracker.Deny] was called
//   - [ResolutionTimeout]: the periodic sweep found it older than its timeout
//
// Requests are kept in a bounded history. Active requests are never evicted
// from the history, whatever its capacity.
package permission
