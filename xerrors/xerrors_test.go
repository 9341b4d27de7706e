package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient("get_header", cause)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))
	assert.ErrorIs(t, err, cause)
}

func TestTransientNilIsNil(t *testing.T) {
	assert.NoError(t, Transient("noop", nil))
}

func TestValidationErrorFormatsKind(t *testing.T) {
	err := Validation(MissingField, "header.hash", 101, 3, nil)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MissingField, ve.Kind)
	assert.Equal(t, int64(101), ve.Level)
	assert.Contains(t, err.Error(), "missing_field")
	assert.Contains(t, err.Error(), "header.hash")
	assert.False(t, IsRetryable(err))
	assert.False(t, IsFatal(err))
}

func TestStateCorruptionIsFatal(t *testing.T) {
	err := StateCorruption("staking_balance", "delegate stakingBalance mismatch")
	assert.True(t, IsFatal(err))
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "staking_balance")
}

func TestProtocolUnknownIsFatal(t *testing.T) {
	err := ProtocolUnknown("PsUnknownHash")
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "PsUnknownHash")
}

func TestValidationKindStrings(t *testing.T) {
	cases := map[ValidationKind]string{
		MissingField:          "missing_field",
		TypeMismatch:          "type_mismatch",
		DuplicateOperation:    "duplicate_operation",
		UnknownOperationKind:  "unknown_operation_kind",
		InvariantViolation:    "invariant_violation",
		ValidationKind(99):    "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
