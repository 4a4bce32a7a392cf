package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseBytes(t *testing.T) {
	assert.Equal(t, []byte{3, 2, 1}, ReverseBytes([]byte{1, 2, 3}))
}

func TestReversedCopyLeavesInputUntouched(t *testing.T) {
	in := []byte{1, 2, 3}
	out := ReversedCopy(in)
	assert.Equal(t, []byte{1, 2, 3}, in)
	assert.Equal(t, []byte{3, 2, 1}, out)
}

func TestPutUint32LE(t *testing.T) {
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, PutUint32LE(nil, 0x12345678))
}

func TestPutUint64LE(t *testing.T) {
	assert.Equal(t,
		[]byte{0xf0, 0xde, 0xbc, 0x9a, 0x78, 0x56, 0x34, 0x12},
		PutUint64LE(nil, 0x123456789abcdef0))
}

func TestVarInt(t *testing.T) {
	assert.Equal(t, []byte{0x05}, VarInt(5))
	assert.Equal(t, []byte{0xfd, 0x00, 0x01}, VarInt(256))
}

func TestPushDataShort(t *testing.T) {
	data := []byte{0xaa, 0xbb}
	out := PushData(data)
	assert.Equal(t, []byte{0x02, 0xaa, 0xbb}, out)
}

func TestPushDataEmpty(t *testing.T) {
	assert.Equal(t, []byte{0x00}, PushData(nil))
}

func TestPushDataLong(t *testing.T) {
	data := make([]byte, 100)
	out := PushData(data)
	assert.Equal(t, byte(0x4c), out[0])
	assert.Equal(t, byte(100), out[1])
	assert.Equal(t, 102, len(out))
}

func TestPushInt64Small(t *testing.T) {
	assert.Equal(t, []byte{0x00}, PushInt64(0))
	assert.Equal(t, []byte{0x51}, PushInt64(1))
	assert.Equal(t, []byte{0x60}, PushInt64(16))
}

func TestPushInt64Height(t *testing.T) {
	out := PushInt64(700000)
	// length-prefixed minimal push, little-endian magnitude
	assert.Equal(t, byte(len(out)-1), out[0])
}
