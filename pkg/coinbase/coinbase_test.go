package coinbase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartManX/miningcore/pkg/common"
	"github.com/BartManX/miningcore/pkg/reward"
)

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func TestBuildRoundTripsAsValidTransaction(t *testing.T) {
	outputs := []reward.Output{
		{Value: 5000000000, ScriptPubKey: []byte{0x76, 0xa9, 0x14, 0x01, 0x02, 0x03, 0x04, 0x88, 0xac}},
	}
	p := Params{
		Height:         700000,
		PlaceholderLen: 8,
		SigScriptFinal: common.PushData([]byte("ngstratum")),
		Now:            fixedClock,
	}

	halves, err := Build(p, 1, outputs)
	require.NoError(t, err)

	placeholder := make([]byte, p.PlaceholderLen)
	full := append(append(append([]byte{}, halves.Initial...), placeholder...), halves.Final...)

	// version(4) + input count varint(1) + null prevout hash(32) + index(4)
	assert.Equal(t, uint32(1), readUint32LE(full[0:4]))
	assert.Equal(t, byte(0x01), full[4])
	assert.Equal(t, make([]byte, 32), full[5:37])
	assert.Equal(t, uint32(0xffffffff), readUint32LE(full[37:41]))

	scriptSigLen, rest := readVarInt(full[41:])
	assert.True(t, uint64(len(rest)) >= scriptSigLen)
}

func TestBuildPoSPrependsTimestamp(t *testing.T) {
	p := Params{
		Height:         1,
		PlaceholderLen: 4,
		IsPoS:          true,
		PoSTimestamp:   1234567890,
		Now:            fixedClock,
	}
	halves, err := Build(p, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), readUint32LE(halves.Initial[0:4]))
	assert.Equal(t, uint32(1234567890), readUint32LE(halves.Initial[4:8]))
}

func TestBuildWitnessCommitmentUsesTemplateVerbatim(t *testing.T) {
	p := Params{
		Height:                   1,
		PlaceholderLen:           4,
		DefaultWitnessCommitment: "6a24aa21a9ed" + fixed32Hex(),
		Now:                      fixedClock,
	}
	halves, err := Build(p, 1, nil)
	require.NoError(t, err)
	// outCount should be 1 (witness commitment only, no payee outputs, pool output appended by caller)
	count, _ := readVarInt(halves.Final[4:]) // after nSequence(4)
	assert.Equal(t, uint64(1), count)
}

func TestBuildWitnessCommitmentRecomputeProducesOpReturn(t *testing.T) {
	p := Params{
		Height:                1,
		PlaceholderLen:        4,
		NeedsWitnessRecompute: true,
		WitnessMerkleRoot:     make([]byte, 32),
		Now:                   fixedClock,
	}
	halves, err := Build(p, 1, nil)
	require.NoError(t, err)
	final := halves.Final
	// nSequence(4) + outCount varint(1) + value(8) + scriptLen varint(1) + script(38)
	assert.Equal(t, byte(0x26), final[4+1+8]) // scriptLen = 0x26 (38 bytes)
	script := final[4+1+8+1:]
	assert.Equal(t, byte(0x6a), script[0])
	assert.Equal(t, byte(0x24), script[1])
	assert.Equal(t, byte(0xaa), script[2])
}

func fixed32Hex() string {
	b := make([]byte, 32)
	hex := ""
	for range b {
		hex += "00"
	}
	return hex
}

func readUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func readVarInt(b []byte) (uint64, []byte) {
	switch b[0] {
	case 0xfd:
		return uint64(b[1]) | uint64(b[2])<<8, b[3:]
	case 0xfe:
		return 0, b[5:]
	case 0xff:
		return 0, b[9:]
	default:
		return uint64(b[0]), b[1:]
	}
}
