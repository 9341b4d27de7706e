// Package xerrors implements the error taxonomy the sync engine dispatches
// on: transient I/O, validation, state-corruption and protocol-unknown.
// Reorgs are not modeled as errors — they are ordinary control flow in the
// sync controller.
package xerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationKind distinguishes the ways upstream RPC data can fail total
// validation.
type ValidationKind int

const (
	MissingField ValidationKind = iota
	TypeMismatch
	DuplicateOperation
	UnknownOperationKind
	InvariantViolation
)

func (k ValidationKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case TypeMismatch:
		return "type_mismatch"
	case DuplicateOperation:
		return "duplicate_operation"
	case UnknownOperationKind:
		return "unknown_operation_kind"
	case InvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// TransientError wraps errors the controller should retry: RPC timeouts,
// 5xx, connection resets, database deadlocks. Never persists partial state.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: errors.Wrap(err, op)}
}

// ValidationError wraps malformed or inconsistent node data: missing field,
// unknown operation kind, duplicate operation id. Aborts the current block
// transaction; requires operator intervention or node resync.
type ValidationError struct {
	Kind  ValidationKind
	Path  string
	Level int64
	OpIdx int
	Err   error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failure (%s) at path %q, level %d, op %d", e.Kind, e.Path, e.Level, e.OpIdx)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func Validation(kind ValidationKind, path string, level int64, opIdx int, err error) error {
	return &ValidationError{Kind: kind, Path: path, Level: level, OpIdx: opIdx, Err: err}
}

// StateCorruptionError signals an invariant violated after commit: negative
// balance, stakingBalance mismatch. Fatal — the writer exits; the read API
// keeps serving stale state.
type StateCorruptionError struct {
	Invariant string
	Detail    string
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("state corruption: invariant %q violated: %s", e.Invariant, e.Detail)
}

func StateCorruption(invariant, detail string) error {
	return &StateCorruptionError{Invariant: invariant, Detail: detail}
}

// ProtocolUnknownError signals a block under a protocol hash not registered
// in the handler registry. Fatal — requires a code update.
type ProtocolUnknownError struct {
	Hash string
}

func (e *ProtocolUnknownError) Error() string {
	return fmt.Sprintf("no protocol handler registered for %s", e.Hash)
}

func ProtocolUnknown(hash string) error {
	return &ProtocolUnknownError{Hash: hash}
}

// IsRetryable reports whether err should be retried by the controller
// rather than treated as fatal for the current tick.
func IsRetryable(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal reports whether err should abort the writer process entirely.
func IsFatal(err error) bool {
	var sc *StateCorruptionError
	var pu *ProtocolUnknownError
	return errors.As(err, &sc) || errors.As(err, &pu)
}
