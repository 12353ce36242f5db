// Package trigger decides whether a run proceeds for a given event.
package trigger

import (
	"fmt"
	"strings"
)

// EventKind is the kind of event that started a run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
	EventUnknown     EventKind = "unknown"
)

// ParseEvent maps an event name to an EventKind. Matching is
// case-insensitive; unrecognized names map to EventUnknown.
func ParseEvent(name string) EventKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "push":
		return EventPush
	case "pull_request", "pull-request", "pr":
		return EventPullRequest
	default:
		return EventUnknown
	}
}

// RunTrigger is the event that started a run. It is constructed once per
// invocation and never modified.
type RunTrigger struct {
	Event  EventKind `json:"event" yaml:"event"`
	Branch string    `json:"branch" yaml:"branch"`
}

// New builds a RunTrigger, normalizing full refs such as refs/heads/main.
func New(event EventKind, branch string) RunTrigger {
	return RunTrigger{Event: event, Branch: NormalizeBranch(branch)}
}

func (t RunTrigger) String() string {
	if t.Branch == "" {
		return string(t.Event)
	}
	return fmt.Sprintf("%s to %s", t.Event, t.Branch)
}

// NormalizeBranch strips the refs/heads/ prefix from a branch reference.
func NormalizeBranch(ref string) string {
	ref = strings.TrimSpace(ref)
	return strings.TrimPrefix(ref, "refs/heads/")
}

// Gate decides whether a trigger authorizes a run.
type Gate struct {
	PrimaryBranch string
}

// Proceed reports whether a run should start. Pull requests always proceed;
// pushes proceed only to the primary branch; every other event is ignored.
// A mismatch is not an error.
func (g Gate) Proceed(t RunTrigger) bool {
	switch t.Event {
	case EventPullRequest:
		return true
	case EventPush:
		return t.Branch == NormalizeBranch(g.PrimaryBranch)
	default:
		return false
	}
}

// Reason explains the Proceed decision in a short human-readable sentence.
func (g Gate) Reason(t RunTrigger) string {
	switch t.Event {
	case EventPullRequest:
		return "pull requests always run"
	case EventPush:
		if g.Proceed(t) {
			return fmt.Sprintf("push to primary branch %q", g.PrimaryBranch)
		}
		return fmt.Sprintf("push to %q, only %q triggers a run", t.Branch, g.PrimaryBranch)
	default:
		return fmt.Sprintf("event %q does not trigger a run", t.Event)
	}
}
