// Package retry runs fallible operations on a fixed, drift-corrected cadence.
//
// A Scheduler invokes an operation, classifies failures through a pluggable
// predicate (services.IsRetriable by default), logs retriable failures at WARN
// and sleeps until the next slot. Slots are anchored to the first invocation:
// attempt n+1 is due at start + interval*(n+1), so slow attempts shorten the
// following sleep instead of pushing the whole schedule back. There is no
// retry budget; callers bound the loop with a context or a stop predicate.
package retry
