package cointemplate

import (
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/pkg/errors"
)

// BitcoinDiff1Hex is Bitcoin's maximum target (difficulty 1), used as the
// CoinTemplate.Diff1 default for coins that don't override it.
const BitcoinDiff1Hex = "00000000ffff0000000000000000000000000000000000000000000000000000"

// TargetBig resolves a template's block_target: the explicit target hex if the
// daemon provided one, otherwise the target implied by the compact bits
// field. Either is a programmer/config error if unparseable (spec §4.4:
// "invariant violations in init ... surface as fatal construction
// failures").
func (t *BlockTemplate) TargetBig() (*big.Int, error) {
	if t.Target != "" {
		b, ok := new(big.Int).SetString(t.Target, 16)
		if !ok {
			return nil, errors.Errorf("invalid target hex %q", t.Target)
		}
		return b, nil
	}
	bitsBytes, err := hex.DecodeString(t.Bits)
	if err != nil {
		return nil, errors.Wrap(err, "invalid bits")
	}
	if len(bitsBytes) != 4 {
		return nil, errors.Errorf("bits must decode to 4 bytes, got %d", len(bitsBytes))
	}
	compact := uint32(bitsBytes[0])<<24 | uint32(bitsBytes[1])<<16 | uint32(bitsBytes[2])<<8 | uint32(bitsBytes[3])
	return blockchain.CompactToBig(compact), nil
}

// Diff1 parses a coin's maximum target (difficulty 1), defaulting to
// Bitcoin's when hex is empty.
func Diff1(hex_ string) (*big.Int, error) {
	if hex_ == "" {
		hex_ = BitcoinDiff1Hex
	}
	b, ok := new(big.Int).SetString(hex_, 16)
	if !ok {
		return nil, errors.Errorf("invalid diff1 hex %q", hex_)
	}
	return b, nil
}

// Difficulty derives the IEEE-754 reporting difficulty of target relative to
// diff1: diff1 / target.
func Difficulty(diff1, target *big.Int) float64 {
	if target.Sign() == 0 {
		return 0
	}
	num := new(big.Float).SetInt(diff1)
	den := new(big.Float).SetInt(target)
	ratio, _ := new(big.Float).Quo(num, den).Float64()
	return ratio
}
