package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"format", Format("parse", "bad"), KindFormat},
		{"range", Range("validate", "too big"), KindRange},
		{"domain", DomainRule("push", "tired"), KindDomainRule},
		{"rate", RateLimited("push"), KindRateLimited},
		{"corrupted", Corrupted("sum", "two rows"), KindCorruptedState},
		{"storage", Storage("insert", errors.New("conn reset")), KindTransientStorage},
		{"wrapped", fmt.Errorf("outer: %w", Range("x", "y")), KindRange},
		{"plain", errors.New("plain"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, IsUserFacing(Format("op", "m")))
	assert.True(t, IsUserFacing(Range("op", "m")))
	assert.True(t, IsUserFacing(DomainRule("op", "m")))
	assert.False(t, IsUserFacing(RateLimited("op")))
	assert.False(t, IsUserFacing(Corrupted("op", "m")))
	assert.False(t, IsUserFacing(Storage("op", errors.New("x"))))
	assert.False(t, IsUserFacing(errors.New("x")))
}

func TestStorage(t *testing.T) {
	assert.NoError(t, Storage("op", nil))

	cause := errors.New("timeout")
	err := Storage("ledger.Insert", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ledger.Insert: transient_storage: timeout", err.Error())

	// Already classified errors keep their kind.
	corrupted := Corrupted("ledger.SumWindow", "duplicate aggregate rows")
	assert.Same(t, corrupted, Storage("outer", corrupted))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "amount is required", Message(Format("parse", "amount is required")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "", Message(nil))
}
