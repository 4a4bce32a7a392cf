// Package common holds the small binary-serialization helpers shared by the
// coinbase and job packages: byte-order reversal, little-endian integers,
// Bitcoin varints and script pushes.
package common

import "github.com/btcsuite/btcd/wire"

// ReverseBytes reverses b in place and returns it, for converting between
// Bitcoin's big-endian wire hex (txids, prev-block hashes) and the
// little-endian internal byte order used for hashing and header assembly.
func ReverseBytes(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// ReversedCopy returns a reversed copy of b, leaving b untouched.
func ReversedCopy(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return ReverseBytes(out)
}

// PutUint32LE appends v to buf in little-endian order.
func PutUint32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// PutUint64LE appends v to buf in little-endian order.
func PutUint64LE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// VarInt returns the Bitcoin CompactSize encoding of n. It delegates to
// wire.MsgTx's own varint writer so our framing stays byte-identical to
// btcd's.
func VarInt(n uint64) []byte {
	buf := make([]byte, 0, 9)
	w := &byteSink{buf: &buf}
	_ = wire.WriteVarInt(w, 0, n)
	return *w.buf
}

// byteSink adapts a *[]byte to io.Writer for wire.WriteVarInt.
type byteSink struct {
	buf *[]byte
}

func (s *byteSink) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}

// PushData returns a Bitcoin script push of data: a length-prefixed byte
// string for short pushes (<=75 bytes), falling back to the OP_PUSHDATA1/2/4
// opcodes for longer ones. Script pushes for coinbase scriptSig/scriptPubKey
// fields never need OP_PUSHDATA4 in practice, but the fallback keeps the
// helper total instead of silently truncating a large coinbase message.
func PushData(data []byte) []byte {
	n := len(data)
	switch {
	case n == 0:
		return []byte{0x00}
	case n <= 75:
		return append([]byte{byte(n)}, data...)
	case n <= 0xff:
		return append([]byte{0x4c, byte(n)}, data...)
	case n <= 0xffff:
		return append([]byte{0x4d, byte(n), byte(n >> 8)}, data...)
	default:
		return append([]byte{0x4e,
			byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}, data...)
	}
}

// PushInt64 returns the minimal script push encoding for n, as used for the
// block-height and coinbase-timestamp push-ops in scriptSig (BIP34 style):
// small values use OP_1..OP_16, zero uses OP_0, everything else is a
// minimally-encoded little-endian push.
func PushInt64(n int64) []byte {
	if n == 0 {
		return []byte{0x00}
	}
	if n >= 1 && n <= 16 {
		return []byte{byte(0x50 + n)}
	}
	negative := n < 0
	abs := n
	if negative {
		abs = -abs
	}
	var b []byte
	for abs > 0 {
		b = append(b, byte(abs&0xff))
		abs >>= 8
	}
	if b[len(b)-1]&0x80 != 0 {
		if negative {
			b = append(b, 0x80)
		} else {
			b = append(b, 0x00)
		}
	} else if negative {
		b[len(b)-1] |= 0x80
	}
	return PushData(b)
}
