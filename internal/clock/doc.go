// Package clock provides an injectable time source so scheduling code can be
// exercised deterministically.
//
// Production code takes a Clock and receives Real(); tests construct a Fake
// whose Sleep advances virtual time instantly and records the requested
// durations. Everything in this program is synchronous, so the fake never has
// to coordinate with other goroutines.
package clock
