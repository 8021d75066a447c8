package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("connection not found")
	ErrReservedTemplate = errors.New("the built-in client tool cannot be deleted")
	ErrTemplateNotFound = errors.New("template not found")
)

// ValidationError is one rejected profile field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every problem found in a profile.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// IntegrityError reports a stored row that cannot be read back, either
// because its password failed to decrypt or its management kind is unknown.
type IntegrityError struct {
	Identifier string
	Err        error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("connection %q: %v", e.Identifier, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// TemplateInUseError blocks deleting a template that profiles still reference.
type TemplateInUseError struct {
	Kind   string
	Name   string
	UsedBy []string
}

func (e *TemplateInUseError) Error() string {
	return fmt.Sprintf("%s %q is used by: %s", e.Kind, e.Name, strings.Join(e.UsedBy, ", "))
}
