package node

import "fmt"

// Outcome is the result class of one node execution.
type Outcome int

const (
	// Ok means the node produced its outputs.
	Ok Outcome = iota
	// Warning means the node ran but something is worth surfacing.
	Warning
	// Error means the node failed; its new outputs are discarded.
	Error
	// Tag means the node ran and asks to be executed again next cycle.
	Tag
)

// String returns the lower-case outcome name.
func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Tag:
		return "tag"
	default:
		return "unknown"
	}
}

// Status is what Execute returns.
type Status struct {
	Outcome Outcome
	Message string
	// TagValue carries elapsed milliseconds for timing reports. It is only
	// meaningful when HasTag is set.
	TagValue float64
	HasTag   bool
}

// StatusOk returns an Ok status with an optional message.
func StatusOk(msg ...string) Status {
	s := Status{Outcome: Ok}
	if len(msg) > 0 {
		s.Message = msg[0]
	}
	return s
}

// StatusWarning returns a Warning status.
func StatusWarning(format string, args ...any) Status {
	return Status{Outcome: Warning, Message: fmt.Sprintf(format, args...)}
}

// StatusError returns an Error status.
func StatusError(format string, args ...any) Status {
	return Status{Outcome: Error, Message: fmt.Sprintf(format, args...)}
}

// StatusTag returns a self-retagging status carrying elapsed milliseconds.
func StatusTag(elapsedMs float64) Status {
	return Status{Outcome: Tag, TagValue: elapsedMs, HasTag: true}
}

// WithTag returns a copy of s carrying the given tag value.
func (s Status) WithTag(v float64) Status {
	s.TagValue = v
	s.HasTag = true
	return s
}

// Failed reports whether the outcome is Error.
func (s Status) Failed() bool {
	return s.Outcome == Error
}

func (s Status) String() string {
	out := s.Outcome.String()
	if s.Message != "" {
		out += ": " + s.Message
	}
	if s.HasTag {
		out += fmt.Sprintf(" [%.3fms]", s.TagValue)
	}
	return out
}
