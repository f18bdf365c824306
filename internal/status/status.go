// Package status defines the shared Status enum used by both Job and Payload
// records. Status values are serialized as lowercase strings over the wire
// and in the database; parsing is case-insensitive and never fails — an
// unrecognized token maps to Unknown.
package status

import "strings"

// Status is the lifecycle state of a Job or Payload.
type Status string

const (
	Pending    Status = "pending"
	Prepared   Status = "prepared"
	Processing Status = "processing"
	Queued     Status = "queued"
	Submitted  Status = "submitted"
	Completed  Status = "completed"
	Failed     Status = "failed"
	Invalid    Status = "invalid"
	Cleaned    Status = "cleaned"
	Unknown    Status = "unknown"
)

// Parse converts a raw string (any case) into a Status. Unrecognized input
// maps to Unknown rather than returning an error — callers never need to
// handle a parse failure.
func Parse(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(Pending):
		return Pending
	case string(Prepared):
		return Prepared
	case string(Processing):
		return Processing
	case string(Queued):
		return Queued
	case string(Submitted):
		return Submitted
	case string(Completed):
		return Completed
	case string(Failed):
		return Failed
	case string(Invalid):
		return Invalid
	case string(Cleaned):
		return Cleaned
	default:
		return Unknown
	}
}

// String returns the lowercase wire/DB form of the status.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether s is one from which only the cleaner may further
// transition the owning row (and only ever to Cleaned).
func (s Status) Terminal() bool {
	switch s {
	case Completed, Failed, Invalid, Cleaned, Unknown:
		return true
	default:
		return false
	}
}
