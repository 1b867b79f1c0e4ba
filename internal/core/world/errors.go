package world

import (
	"fmt"
	"strings"
)

// Reason says why a bind was refused.
type Reason string

const (
	ReasonAlreadyBound Reason = "already bound"
	ReasonUnknownID    Reason = "unknown component id"
	ReasonNilValue     Reason = "nil value"
)

// BindError is returned when a component slot cannot take a value.
type BindError struct {
	Name   string
	Reason Reason
	ID     ComponentID
}

func (e *BindError) Error() string {
	var b strings.Builder
	b.WriteString("bind component")
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	fmt.Fprintf(&b, " (id %d): %s", e.ID, e.Reason)
	return b.String()
}

// Is matches any *BindError with the same Reason, or any *BindError when the
// target's Reason is empty.
func (e *BindError) Is(target error) bool {
	t, ok := target.(*BindError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}
