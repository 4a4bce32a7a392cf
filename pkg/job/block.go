package job

import "github.com/BartManX/miningcore/pkg/common"

// serializeBlock assembles the full Bitcoin block for submission, per spec
// §4.6: header, tx count (including the coinbase), coinbase, then every
// template transaction's raw bytes in order. PoS coins append a trailing
// signature-slot byte; MWEB coins append their trailer when the template
// carries one.
func serializeBlock(header, coinbase []byte, transactions [][]byte, isPoS bool, mwebHex []byte) []byte {
	out := append([]byte{}, header...)
	out = append(out, common.VarInt(uint64(len(transactions)+1))...)
	out = append(out, coinbase...)
	for _, tx := range transactions {
		out = append(out, tx...)
	}
	if isPoS {
		out = append(out, 0x00)
	}
	if len(mwebHex) > 0 {
		out = append(out, 0x01)
		out = append(out, mwebHex...)
	}
	return out
}
