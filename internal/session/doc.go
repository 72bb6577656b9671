// Package session orchestrates a full invocation: it locks the temp
// directory, asks the operator (or a timeout) what to do, and sequences
// scanning, production, and merging. Production and merge work stays
// strictly single-threaded; the only concurrency is the countdown prompt's
// input polling.
package session
