package application

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
)

func TestNew(t *testing.T) {
	t.Run("copies the attribute map", func(t *testing.T) {
		attrs := map[string]Value{"income": Number(50000)}
		app, err := New(id.ApplicationID("APP-1"), attrs)
		require.NoError(t, err)

		attrs["income"] = Number(0)
		got, ok := app.Number("income")
		require.True(t, ok)
		assert.Equal(t, float64(50000), got)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := New("", map[string]Value{"income": Number(1)})
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	t.Run("rejects empty attributes", func(t *testing.T) {
		_, err := New(id.ApplicationID("APP-1"), nil)
		require.Error(t, err)
	})

	t.Run("rejects absent attribute value", func(t *testing.T) {
		_, err := New(id.ApplicationID("APP-1"), map[string]Value{"income": {}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "income")
	})
}

func TestApplicationAccessors(t *testing.T) {
	app, err := New(id.ApplicationID("APP-1"), map[string]Value{
		"income":     Number(50000),
		"employment": Text("salaried"),
	})
	require.NoError(t, err)

	num, ok := app.Number("income")
	require.True(t, ok)
	assert.Equal(t, float64(50000), num)

	_, ok = app.Number("employment")
	assert.False(t, ok)

	text, ok := app.Text("employment")
	require.True(t, ok)
	assert.Equal(t, "salaried", text)

	_, ok = app.Text("income")
	assert.False(t, ok)

	assert.Equal(t, []string{"employment", "income"}, app.AttributeNames())
}

func TestApplicationApply(t *testing.T) {
	base, err := New(id.ApplicationID("APP-1"), map[string]Value{
		"income": Number(50000),
		"debt":   Number(20000),
	})
	require.NoError(t, err)

	modified := base.Apply(map[string]Value{
		"debt":   Number(5000),
		"status": Text("verified"),
	})

	// The receiver must be untouched.
	original, _ := base.Number("debt")
	assert.Equal(t, float64(20000), original)
	_, present := base.Get("status")
	assert.False(t, present)

	changed, _ := modified.Number("debt")
	assert.Equal(t, float64(5000), changed)
	status, _ := modified.Text("status")
	assert.Equal(t, "verified", status)
}

func TestValueJSON(t *testing.T) {
	t.Run("number round-trips", func(t *testing.T) {
		data, err := json.Marshal(Number(0.55))
		require.NoError(t, err)
		assert.Equal(t, "0.55", string(data))

		var v Value
		require.NoError(t, json.Unmarshal(data, &v))
		assert.Equal(t, Number(0.55), v)
	})

	t.Run("text round-trips", func(t *testing.T) {
		data, err := json.Marshal(Text("salaried"))
		require.NoError(t, err)
		assert.Equal(t, `"salaried"`, string(data))

		var v Value
		require.NoError(t, json.Unmarshal(data, &v))
		assert.Equal(t, Text("salaried"), v)
	})

	t.Run("rejects non-scalar values", func(t *testing.T) {
		var v Value
		require.Error(t, json.Unmarshal([]byte(`{"nested":1}`), &v))
		require.Error(t, json.Unmarshal([]byte(`true`), &v))
		require.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
	})
}
