// Package application models a credit application as an immutable mapping of
// named attributes. The pipeline never mutates an application; what-if
// simulation works on copies.
package application

import (
	"encoding/json"
	"fmt"
	"sort"

	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
)

// Kind discriminates attribute value types.
type Kind uint8

const (
	KindNumber Kind = iota + 1
	KindText
)

// Value is a single application attribute: numeric or categorical.
// The zero Value means "absent"; absence is a validation failure when a rule
// references the attribute, never a silent default.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Number constructs a numeric attribute value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text constructs a categorical attribute value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return v.Kind == 0 }

// String renders the value for logs and explanation templates.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return trimFloat(v.Num)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

// MarshalJSON renders numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts JSON numbers and strings; anything else is rejected
// so malformed attributes fail at the boundary.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	default:
		return fmt.Errorf("attribute value must be a number or string, got %T", raw)
	}
	return nil
}

// Application is the immutable input to the decision pipeline. It is owned by
// the caller and passed by value; Clone produces an independent copy for
// what-if modification.
type Application struct {
	ID    id.ApplicationID
	Attrs map[string]Value
}

// New builds an application from attributes, rejecting absent values.
func New(appID id.ApplicationID, attrs map[string]Value) (Application, error) {
	if appID.IsEmpty() {
		return Application{}, dErrors.New(dErrors.CodeValidation, "application_id is required")
	}
	if len(attrs) == 0 {
		return Application{}, dErrors.New(dErrors.CodeValidation, "application has no attributes")
	}
	copied := make(map[string]Value, len(attrs))
	for name, value := range attrs {
		if name == "" {
			return Application{}, dErrors.New(dErrors.CodeValidation, "attribute name cannot be empty")
		}
		if value.IsZero() {
			return Application{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("attribute %q has no value", name))
		}
		copied[name] = value
	}
	return Application{ID: appID, Attrs: copied}, nil
}

// Number returns a numeric attribute and whether it is present and numeric.
func (a Application) Number(name string) (float64, bool) {
	v, ok := a.Attrs[name]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Text returns a categorical attribute and whether it is present and textual.
func (a Application) Text(name string) (string, bool) {
	v, ok := a.Attrs[name]
	if !ok || v.Kind != KindText {
		return "", false
	}
	return v.Text, true
}

// Get returns the raw attribute value.
func (a Application) Get(name string) (Value, bool) {
	v, ok := a.Attrs[name]
	return v, ok
}

// Clone returns an independent copy of the application.
func (a Application) Clone() Application {
	attrs := make(map[string]Value, len(a.Attrs))
	for name, value := range a.Attrs {
		attrs[name] = value
	}
	return Application{ID: a.ID, Attrs: attrs}
}

// Apply returns a copy with the given deltas set. The receiver is unchanged.
func (a Application) Apply(deltas map[string]Value) Application {
	modified := a.Clone()
	for name, value := range deltas {
		modified.Attrs[name] = value
	}
	return modified
}

// AttributeNames returns the attribute names in sorted order, for
// deterministic logging and hashing.
func (a Application) AttributeNames() []string {
	names := make([]string, 0, len(a.Attrs))
	for name := range a.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
