package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
)

// TestTransactionApplyRevertIdentity covers seed scenario S1: a single
// successful transfer debits the sender's amount+fee and credits the
// target, and Revert restores both balances and counters exactly.
func TestTransactionApplyRevertIdentity(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	params := testParams()

	sender := mustCreateAccount(t, c, "tz1Sender", 1_000_000)
	target := mustCreateAccount(t, c, "tz1Target", 0)
	senderBalanceBefore := sender.Balance
	targetBalanceBefore := target.Balance
	senderCounterBefore := sender.Counter

	content := rpc.OperationContent{
		Kind:        "transaction",
		Source:      "tz1Sender",
		Destination: "tz1Target",
		Fee:         rpc.Mutez(100),
		Amount:      rpc.Mutez(5000),
		Counter:     "1",
		Metadata: &rpc.OperationMetadata{
			OperationResult: &rpc.OperationResult{Status: "applied"},
		},
	}

	env := &Env{Tx: tx, Cache: c, Block: blk, Params: params}
	op, err := TransactionCommit{}.Apply(context.Background(), env, model.OpRef{Kind: model.OpTypeTransaction}, content)
	require.NoError(t, err)
	require.NotNil(t, op)

	assert.Equal(t, senderBalanceBefore-5100, sender.Balance)
	assert.Equal(t, targetBalanceBefore+5000, target.Balance)
	assert.Equal(t, senderCounterBefore+1, sender.Counter)
	assert.True(t, target.IsFunded)
	assert.Equal(t, 1, sender.TransactionsCount)
	assert.Equal(t, 1, target.TransactionsCount)

	require.NoError(t, TransactionCommit{}.Revert(context.Background(), env, op))

	assert.Equal(t, senderBalanceBefore, sender.Balance)
	assert.Equal(t, targetBalanceBefore, target.Balance)
	assert.Equal(t, senderCounterBefore, sender.Counter)
	assert.Equal(t, 0, sender.TransactionsCount)
	assert.Equal(t, 0, target.TransactionsCount)
	assert.False(t, target.IsFunded, "reverting back to a zero balance must clear the funded flag")
}

// TestTransactionFailedOnlyChargesFee covers seed scenario S2: a failed
// transaction still burns the baker fee but never moves the transferred
// amount, and Revert gives back exactly the fee.
func TestTransactionFailedOnlyChargesFee(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	params := testParams()

	sender := mustCreateAccount(t, c, "tz1Sender", 1_000_000)
	target := mustCreateAccount(t, c, "tz1Target", 0)
	senderBalanceBefore := sender.Balance

	content := rpc.OperationContent{
		Kind:        "transaction",
		Source:      "tz1Sender",
		Destination: "tz1Target",
		Fee:         rpc.Mutez(100),
		Amount:      rpc.Mutez(5000),
		Counter:     "1",
		Metadata: &rpc.OperationMetadata{
			OperationResult: &rpc.OperationResult{Status: "failed"},
		},
	}

	env := &Env{Tx: tx, Cache: c, Block: blk, Params: params}
	op, err := TransactionCommit{}.Apply(context.Background(), env, model.OpRef{Kind: model.OpTypeTransaction}, content)
	require.NoError(t, err)

	assert.False(t, op.IsSuccess)
	assert.Equal(t, senderBalanceBefore-100, sender.Balance)
	assert.Equal(t, int64(0), target.Balance)
	assert.False(t, target.IsFunded)

	require.NoError(t, TransactionCommit{}.Revert(context.Background(), env, op))
	assert.Equal(t, senderBalanceBefore, sender.Balance)
}
