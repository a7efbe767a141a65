package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credex/internal/application"
	id "credex/pkg/domain"
)

func numOperand(f float64) *Operand    { return &Operand{Num: &f} }
func textOperand(s string) *Operand    { return &Operand{Text: &s} }
func listOperand(s ...string) *Operand { return &Operand{List: s} }

func testApp(t *testing.T, attrs map[string]application.Value) application.Application {
	t.Helper()
	app, err := application.New(id.ApplicationID("APP-1"), attrs)
	require.NoError(t, err)
	return app
}

func TestConditionEval_Leaf(t *testing.T) {
	app := testApp(t, map[string]application.Value{
		"debt_to_income": application.Number(0.6),
		"employment":     application.Text("salaried"),
	})

	tests := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{"gt true", Condition{Attribute: "debt_to_income", Op: OpGT, Value: numOperand(0.55)}, true},
		{"gt false on equal", Condition{Attribute: "debt_to_income", Op: OpGT, Value: numOperand(0.6)}, false},
		{"gte true on equal", Condition{Attribute: "debt_to_income", Op: OpGE, Value: numOperand(0.6)}, true},
		{"lt false", Condition{Attribute: "debt_to_income", Op: OpLT, Value: numOperand(0.6)}, false},
		{"lte true on equal", Condition{Attribute: "debt_to_income", Op: OpLE, Value: numOperand(0.6)}, true},
		{"eq number", Condition{Attribute: "debt_to_income", Op: OpEQ, Value: numOperand(0.6)}, true},
		{"ne number", Condition{Attribute: "debt_to_income", Op: OpNE, Value: numOperand(0.5)}, true},
		{"eq text", Condition{Attribute: "employment", Op: OpEQ, Value: textOperand("salaried")}, true},
		{"ne text", Condition{Attribute: "employment", Op: OpNE, Value: textOperand("salaried")}, false},
		{"in hit", Condition{Attribute: "employment", Op: OpIn, Value: listOperand("contract", "salaried")}, true},
		{"in miss", Condition{Attribute: "employment", Op: OpIn, Value: listOperand("contract", "hourly")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.condition.Eval(app)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionEval_Errors(t *testing.T) {
	app := testApp(t, map[string]application.Value{
		"debt_to_income": application.Number(0.6),
		"employment":     application.Text("salaried"),
	})

	t.Run("missing attribute is an error, not false", func(t *testing.T) {
		cond := Condition{Attribute: "unknown_attr", Op: OpGT, Value: numOperand(1)}
		_, err := cond.Eval(app)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown_attr")
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("numeric operator on text attribute", func(t *testing.T) {
		cond := Condition{Attribute: "employment", Op: OpGT, Value: numOperand(1)}
		_, err := cond.Eval(app)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not numeric")
	})

	t.Run("text comparison on numeric attribute", func(t *testing.T) {
		cond := Condition{Attribute: "debt_to_income", Op: OpEQ, Value: textOperand("high")}
		_, err := cond.Eval(app)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not categorical")
	})

	t.Run("in on numeric attribute", func(t *testing.T) {
		cond := Condition{Attribute: "debt_to_income", Op: OpIn, Value: listOperand("a")}
		_, err := cond.Eval(app)
		require.Error(t, err)
	})

	t.Run("error inside combinator propagates", func(t *testing.T) {
		cond := Condition{All: []Condition{
			{Attribute: "debt_to_income", Op: OpGT, Value: numOperand(0.1)},
			{Attribute: "unknown_attr", Op: OpGT, Value: numOperand(1)},
		}}
		_, err := cond.Eval(app)
		require.Error(t, err)
	})
}

func TestConditionEval_Combinators(t *testing.T) {
	app := testApp(t, map[string]application.Value{
		"a": application.Number(1),
		"b": application.Number(10),
	})

	aHigh := Condition{Attribute: "a", Op: OpGT, Value: numOperand(5)} // false
	aLow := Condition{Attribute: "a", Op: OpLT, Value: numOperand(5)}  // true
	bHigh := Condition{Attribute: "b", Op: OpGT, Value: numOperand(5)} // true

	tests := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{"all true", Condition{All: []Condition{aLow, bHigh}}, true},
		{"all with one false", Condition{All: []Condition{aLow, aHigh}}, false},
		{"any with one true", Condition{Any: []Condition{aHigh, bHigh}}, true},
		{"any all false", Condition{Any: []Condition{aHigh, aHigh}}, false},
		{"not inverts", Condition{Not: &aHigh}, true},
		{"nested", Condition{All: []Condition{bHigh, {Any: []Condition{aHigh, aLow}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.condition.Eval(app)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		wantErr   string
	}{
		{"valid leaf", Condition{Attribute: "x", Op: OpGT, Value: numOperand(1)}, ""},
		{"empty condition", Condition{}, "exactly one"},
		{"leaf and combinator together", Condition{
			Attribute: "x", Op: OpGT, Value: numOperand(1),
			All: []Condition{{Attribute: "y", Op: OpGT, Value: numOperand(1)}},
		}, "exactly one"},
		{"leaf without operator", Condition{Attribute: "x", Value: numOperand(1)}, "invalid operator"},
		{"leaf without value", Condition{Attribute: "x", Op: OpGT}, "needs a value"},
		{"in without list", Condition{Attribute: "x", Op: OpIn, Value: textOperand("a")}, "requires a list"},
		{"gt with text operand", Condition{Attribute: "x", Op: OpGT, Value: textOperand("a")}, "numeric value"},
		{"invalid child reported with path", Condition{All: []Condition{
			{Attribute: "x", Op: OpGT, Value: numOperand(1)},
			{},
		}}, "all[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.condition.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConditionPrimaryLeaf(t *testing.T) {
	t.Run("plain leaf", func(t *testing.T) {
		cond := Condition{Attribute: "debt_to_income", Op: OpGT, Value: numOperand(0.55)}
		attr, threshold, ok := cond.PrimaryLeaf()
		require.True(t, ok)
		assert.Equal(t, "debt_to_income", attr)
		assert.Equal(t, "0.55", threshold)
	})

	t.Run("first leaf of a combinator", func(t *testing.T) {
		cond := Condition{All: []Condition{
			{Attribute: "credit_utilization", Op: OpGT, Value: numOperand(0.9)},
			{Attribute: "existing_loans", Op: OpGE, Value: numOperand(1)},
		}}
		attr, threshold, ok := cond.PrimaryLeaf()
		require.True(t, ok)
		assert.Equal(t, "credit_utilization", attr)
		assert.Equal(t, "0.9", threshold)
	})
}
