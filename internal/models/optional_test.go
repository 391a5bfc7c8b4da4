package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_MarshalJSON(t *testing.T) {
	some, err := json.Marshal(Some("acme"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"__kind__":"Some","value":"acme"}`, string(some))

	none, err := json.Marshal(None[string]())
	require.NoError(t, err)
	assert.JSONEq(t, `{"__kind__":"None"}`, string(none))

	zeroDate, err := json.Marshal(Some(int64(0)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"__kind__":"Some","value":0}`, string(zeroDate))
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  Optional[string]
		expectErr bool
	}{
		{name: "some", input: `{"__kind__":"Some","value":"x"}`, expected: Some("x")},
		{name: "none", input: `{"__kind__":"None"}`, expected: None[string]()},
		{name: "null", input: `null`, expected: None[string]()},
		{name: "some with empty string", input: `{"__kind__":"Some","value":""}`, expected: Some("")},
		{name: "some without value", input: `{"__kind__":"Some"}`, expectErr: true},
		{name: "unknown kind", input: `{"__kind__":"Maybe"}`, expectErr: true},
		{name: "bare value", input: `"x"`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Optional[string]
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOptional_MissingFieldIsNone(t *testing.T) {
	var request SubmitContactFormRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Jane","phone":"123","message":"hi"}`), &request))

	assert.False(t, request.Email.IsSome())
	assert.Equal(t, "Jane", request.Name)
}

func TestOptional_Scan(t *testing.T) {
	var text Optional[string]
	require.NoError(t, text.Scan([]byte("bytes")))
	assert.Equal(t, Some("bytes"), text)

	require.NoError(t, text.Scan(nil))
	assert.False(t, text.IsSome())

	var date Optional[int64]
	require.NoError(t, date.Scan(int64(1700000000000000000)))
	assert.Equal(t, Some(int64(1700000000000000000)), date)

	assert.Error(t, date.Scan("not a number"))
}

func TestOptional_Value(t *testing.T) {
	value, err := None[string]().Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	value, err = Some(int64(42)).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
}

func TestOptionalString(t *testing.T) {
	assert.False(t, OptionalString("   ").IsSome())
	assert.Equal(t, Some("acme"), OptionalString("  acme "))
}

func TestOptional_Accessors(t *testing.T) {
	value, ok := Some("a").Get()
	assert.True(t, ok)
	assert.Equal(t, "a", value)

	assert.Equal(t, "fallback", None[string]().OrElse("fallback"))
	assert.Nil(t, None[int64]().Ptr())
	assert.Equal(t, int64(7), *Some(int64(7)).Ptr())
}

func TestRole(t *testing.T) {
	role, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("root")
	assert.False(t, ok)
	assert.False(t, Role("").Valid())
	assert.Equal(t, RoleGuest, DefaultRole)
}

func TestCaller(t *testing.T) {
	assert.False(t, NewCaller("  ").Authenticated())
	assert.False(t, AnonymousCaller().Authenticated())
	assert.True(t, NewCaller("alice").Authenticated())
}

func TestTestItemTypeLabel(t *testing.T) {
	assert.Equal(t, "Electric Cable", TestItemTypeLabel("cable"))
	assert.Equal(t, "transformer", TestItemTypeLabel("transformer"))
}
