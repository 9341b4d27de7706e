package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutezUnmarshalsStringEncodedAmount(t *testing.T) {
	var m Mutez
	require.NoError(t, json.Unmarshal([]byte(`"1250000"`), &m))
	assert.Equal(t, int64(1250000), m.Int64())
}

func TestMutezUnmarshalsBareNumber(t *testing.T) {
	var m Mutez
	require.NoError(t, json.Unmarshal([]byte(`42`), &m))
	assert.Equal(t, int64(42), m.Int64())
}

func TestMutezUnmarshalsEmptyStringAsZero(t *testing.T) {
	var m Mutez
	require.NoError(t, json.Unmarshal([]byte(`""`), &m))
	assert.Equal(t, int64(0), m.Int64())
}

func TestMutezMarshalRoundTrip(t *testing.T) {
	m := Mutez(987654321)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"987654321"`, string(data))

	var back Mutez
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestMutezUnmarshalRejectsGarbage(t *testing.T) {
	var m Mutez
	assert.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &m))
}

func TestBalanceUpdateAmountParsesSignedChange(t *testing.T) {
	b := BalanceUpdate{Change: "-5000"}
	assert.Equal(t, int64(-5000), b.Amount())

	b = BalanceUpdate{Change: "5000"}
	assert.Equal(t, int64(5000), b.Amount())
}

func TestBalanceUpdateAmountDefaultsToZeroOnMalformed(t *testing.T) {
	b := BalanceUpdate{Change: "garbage"}
	assert.Equal(t, int64(0), b.Amount())
}

func TestBalanceUpdateAddressPrefersContractOverDelegate(t *testing.T) {
	b := BalanceUpdate{Contract: "KT1abc", Delegate: "tz1xyz"}
	assert.Equal(t, "KT1abc", b.Address())

	b = BalanceUpdate{Delegate: "tz1xyz"}
	assert.Equal(t, "tz1xyz", b.Address())
}

func TestBlockLevelAndCycleDelegateToNestedFields(t *testing.T) {
	blk := &Block{Header: Header{Level: 101}}
	blk.Metadata.LevelInfo.Level = 101
	blk.Metadata.LevelInfo.Cycle = 3

	assert.Equal(t, int64(101), blk.Level())
	assert.Equal(t, int64(3), blk.Cycle())
}
