// Package detect turns raw assistant output into typed activity events.
//
// A [Classifier] holds an ordered table of regex [Rule] values. Each call to
// [Classifier.Classify] evaluates every rule against the text and returns one
// [event.ActivityEvent] per matching rule, in table order. The classifier does
// not publish anything itself; callers hand the events to an event bus.
//
// [DefaultRules] returns the built-in table. Additional rules can be loaded
// from YAML with [LoadRules].
package detect
