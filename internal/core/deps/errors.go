package deps

import (
	"errors"
	"strings"
)

// Kind classifies a configuration failure.
type Kind string

const (
	KindDuplicateDefiner   Kind = "duplicate_definer"
	KindMissingDependency  Kind = "missing_dependency"
	KindCircularDependency Kind = "circular_dependency"
)

var (
	ErrDuplicateDefiner   = errors.New("duplicate definer")
	ErrMissingDependency  = errors.New("missing dependency")
	ErrCircularDependency = errors.New("circular dependency")
)

// ConfigurationError reports a plugin set that cannot be ordered. Component is
// set for duplicate definers and unmet requirements; Plugins lists the
// plugins involved.
type ConfigurationError struct {
	Kind      Kind
	Component string
	Plugins   []string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindDuplicateDefiner:
		b.WriteString("duplicate definer for component: ")
		b.WriteString(e.Component)
		if len(e.Plugins) > 0 {
			b.WriteString(" (")
			b.WriteString(strings.Join(e.Plugins, ", "))
			b.WriteByte(')')
		}
	case KindMissingDependency:
		b.WriteString("missing dependency: ")
		b.WriteString(e.Component)
		if len(e.Plugins) > 0 {
			b.WriteString(" (required by ")
			b.WriteString(strings.Join(e.Plugins, ", "))
			b.WriteByte(')')
		}
	case KindCircularDependency:
		b.WriteString("circular dependency detected involving: ")
		b.WriteString(strings.Join(e.Plugins, ", "))
	default:
		b.WriteString("invalid plugin configuration")
	}
	return b.String()
}

// Is lets errors.Is match the package sentinels.
func (e *ConfigurationError) Is(target error) bool {
	switch target {
	case ErrDuplicateDefiner:
		return e.Kind == KindDuplicateDefiner
	case ErrMissingDependency:
		return e.Kind == KindMissingDependency
	case ErrCircularDependency:
		return e.Kind == KindCircularDependency
	}
	return false
}
