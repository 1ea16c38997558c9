package constrain

import "fmt"

// TypeNotFoundError reports a requested type, profile, or target identifier
// that the type hierarchy cannot resolve at all.
type TypeNotFoundError struct {
	Type string
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("no definition found for type %q", e.Type)
}

// InvalidTypeError reports a requested constraint that no existing type
// slot is compatible with.
type InvalidTypeError struct {
	Type    string
	Allowed []string
}

func (e *InvalidTypeError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("type %q does not match any allowed type", e.Type)
	}
	return fmt.Sprintf("type %q does not match any allowed type %v", e.Type, e.Allowed)
}

// NonAbstractParentError reports an illegal specialization: the existing
// slot's type is concrete, so it cannot be narrowed to a more specific
// concrete type.
type NonAbstractParentError struct {
	Parent    string
	Requested string
}

func (e *NonAbstractParentError) Error() string {
	return fmt.Sprintf("cannot constrain non-abstract type %q to specialization %q", e.Parent, e.Requested)
}

// InvalidTargetError reports a supplied target type that addresses no
// existing slot compatible with the requested shapes.
type InvalidTargetError struct {
	Target string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("target type %q does not match any allowed type", e.Target)
}
