package rules

import (
	"fmt"
	"slices"

	"credex/internal/application"
)

// Operator is a comparison operator usable in a leaf condition.
type Operator string

const (
	OpGT Operator = "gt"
	OpGE Operator = "gte"
	OpLT Operator = "lt"
	OpLE Operator = "lte"
	OpEQ Operator = "eq"
	OpNE Operator = "ne"
	OpIn Operator = "in"
)

// IsValid checks if the operator is supported.
func (o Operator) IsValid() bool {
	switch o {
	case OpGT, OpGE, OpLT, OpLE, OpEQ, OpNE, OpIn:
		return true
	}
	return false
}

// Operand is the right-hand side of a leaf comparison: a number, a string,
// or a string list (for "in").
type Operand struct {
	Num  *float64
	Text *string
	List []string
}

// UnmarshalYAML accepts a scalar number, a scalar string, or a string list.
func (o *Operand) UnmarshalYAML(unmarshal func(any) error) error {
	var num float64
	if err := unmarshal(&num); err == nil {
		o.Num = &num
		return nil
	}
	var text string
	if err := unmarshal(&text); err == nil {
		o.Text = &text
		return nil
	}
	var list []string
	if err := unmarshal(&list); err == nil {
		o.List = list
		return nil
	}
	return fmt.Errorf("operand must be a number, string, or string list")
}

// String renders the operand for explanation templates.
func (o Operand) String() string {
	switch {
	case o.Num != nil:
		return fmt.Sprintf("%g", *o.Num)
	case o.Text != nil:
		return *o.Text
	default:
		return fmt.Sprintf("%v", o.List)
	}
}

// Condition is a tagged boolean tree over application attributes. Exactly one
// of All, Any, Not, or the leaf triple (Attribute, Op, Value) may be set.
type Condition struct {
	All []Condition `yaml:"all,omitempty"`
	Any []Condition `yaml:"any,omitempty"`
	Not *Condition  `yaml:"not,omitempty"`

	Attribute string   `yaml:"attribute,omitempty"`
	Op        Operator `yaml:"op,omitempty"`
	Value     *Operand `yaml:"value,omitempty"`
}

// Validate checks structural well-formedness without evaluating.
func (c Condition) Validate() error {
	set := 0
	if len(c.All) > 0 {
		set++
	}
	if len(c.Any) > 0 {
		set++
	}
	if c.Not != nil {
		set++
	}
	if c.Attribute != "" || c.Op != "" || c.Value != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("condition must be exactly one of all/any/not/leaf")
	}

	switch {
	case len(c.All) > 0:
		for i, child := range c.All {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("all[%d]: %w", i, err)
			}
		}
	case len(c.Any) > 0:
		for i, child := range c.Any {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("any[%d]: %w", i, err)
			}
		}
	case c.Not != nil:
		if err := c.Not.Validate(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	default:
		if c.Attribute == "" {
			return fmt.Errorf("leaf condition needs an attribute")
		}
		if !c.Op.IsValid() {
			return fmt.Errorf("leaf condition on %q: invalid operator %q", c.Attribute, c.Op)
		}
		if c.Value == nil {
			return fmt.Errorf("leaf condition on %q needs a value", c.Attribute)
		}
		if c.Op == OpIn && c.Value.List == nil {
			return fmt.Errorf("leaf condition on %q: operator in requires a list", c.Attribute)
		}
		if c.Op != OpIn && c.Op != OpEQ && c.Op != OpNE && c.Value.Num == nil {
			return fmt.Errorf("leaf condition on %q: operator %s requires a numeric value", c.Attribute, c.Op)
		}
	}
	return nil
}

// Eval resolves the condition against an application. A missing attribute or
// a type mismatch is an error, never a silent false.
func (c Condition) Eval(app application.Application) (bool, error) {
	switch {
	case len(c.All) > 0:
		for _, child := range c.All {
			ok, err := child.Eval(app)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case len(c.Any) > 0:
		for _, child := range c.Any {
			ok, err := child.Eval(app)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case c.Not != nil:
		ok, err := c.Not.Eval(app)
		if err != nil {
			return false, err
		}
		return !ok, nil

	default:
		return c.evalLeaf(app)
	}
}

func (c Condition) evalLeaf(app application.Application) (bool, error) {
	value, present := app.Get(c.Attribute)
	if !present {
		return false, &attributeError{attribute: c.Attribute, reason: "attribute is missing"}
	}

	switch c.Op {
	case OpGT, OpGE, OpLT, OpLE:
		if value.Kind != application.KindNumber {
			return false, &attributeError{attribute: c.Attribute, reason: "attribute is not numeric"}
		}
		threshold := *c.Value.Num
		switch c.Op {
		case OpGT:
			return value.Num > threshold, nil
		case OpGE:
			return value.Num >= threshold, nil
		case OpLT:
			return value.Num < threshold, nil
		default:
			return value.Num <= threshold, nil
		}

	case OpEQ, OpNE:
		equal, err := c.compareEqual(value)
		if err != nil {
			return false, err
		}
		if c.Op == OpNE {
			return !equal, nil
		}
		return equal, nil

	case OpIn:
		if value.Kind != application.KindText {
			return false, &attributeError{attribute: c.Attribute, reason: "attribute is not categorical"}
		}
		return slices.Contains(c.Value.List, value.Text), nil

	default:
		return false, &attributeError{attribute: c.Attribute, reason: fmt.Sprintf("unsupported operator %q", c.Op)}
	}
}

func (c Condition) compareEqual(value application.Value) (bool, error) {
	switch {
	case c.Value.Num != nil:
		if value.Kind != application.KindNumber {
			return false, &attributeError{attribute: c.Attribute, reason: "attribute is not numeric"}
		}
		return value.Num == *c.Value.Num, nil
	case c.Value.Text != nil:
		if value.Kind != application.KindText {
			return false, &attributeError{attribute: c.Attribute, reason: "attribute is not categorical"}
		}
		return value.Text == *c.Value.Text, nil
	default:
		return false, &attributeError{attribute: c.Attribute, reason: "eq/ne requires a scalar operand"}
	}
}

// PrimaryLeaf returns the first leaf condition in document order. Explanation
// templates use it to substitute {attribute} and {threshold}.
func (c Condition) PrimaryLeaf() (attribute string, threshold string, ok bool) {
	switch {
	case len(c.All) > 0:
		return c.All[0].PrimaryLeaf()
	case len(c.Any) > 0:
		return c.Any[0].PrimaryLeaf()
	case c.Not != nil:
		return c.Not.PrimaryLeaf()
	default:
		if c.Attribute == "" || c.Value == nil {
			return "", "", false
		}
		return c.Attribute, c.Value.String(), true
	}
}

// attributeError carries the offending attribute up to the evaluator, which
// wraps it with the rule ID.
type attributeError struct {
	attribute string
	reason    string
}

func (e *attributeError) Error() string {
	return fmt.Sprintf("attribute %q: %s", e.attribute, e.reason)
}
