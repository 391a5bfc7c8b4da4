package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "plain error", err: errors.New("x"), expected: KindInternal},
		{name: "validation", err: Validation("bad"), expected: KindValidation},
		{name: "wrapped forbidden", err: fmt.Errorf("ctx: %w", Forbidden("no")), expected: KindForbidden},
		{name: "not found", err: NotFound("gone"), expected: KindNotFound},
		{name: "transport", err: Transport("offline"), expected: KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestIsAuthorization(t *testing.T) {
	assert.True(t, IsAuthorization(Unauthenticated("login")))
	assert.True(t, IsAuthorization(fmt.Errorf("wrap: %w", Forbidden("admin only"))))
	assert.False(t, IsAuthorization(Validation("bad")))
	assert.False(t, IsAuthorization(nil))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "validation: phone: is required", ValidationField("phone", "is required").Error())
	assert.Equal(t, "not_found: test request not found", NotFound("test request not found").Error())
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("delete: %w", NotFound("missing"))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindValidation))
	assert.False(t, Is(nil, KindInternal))
}
