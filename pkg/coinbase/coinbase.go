// Package coinbase builds the two coinbase transaction halves a Stratum job
// hands miners: coinbase_initial and coinbase_final, which sandwich the
// extranonce1/extranonce2 placeholder miners fill in themselves.
package coinbase

import (
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
	"github.com/seehuhn/sha256d"

	"github.com/BartManX/miningcore/pkg/common"
	"github.com/BartManX/miningcore/pkg/reward"
)

// Params collects everything Build needs beyond the coin template and the
// already-run reward pipeline: pool-wide placeholder sizing, the operator's
// coinbase tag, and the witness-commitment inputs for SegWit coins.
type Params struct {
	Height int64
	// PlaceholderLen is extranonce1_size + extranonce2_size, fixed pool-wide
	// so every job's scriptSig length prefix is correct regardless of which
	// worker later fills the placeholder in.
	PlaceholderLen int
	CoinbaseAuxFlagsHex    string
	IgnoreAuxFlags         bool
	SigScriptFinal         []byte // pre-decoded operator "coinbase string" push
	IsPoS                  bool
	PoSTimestamp           uint32 // block_template.cur_time, only written when IsPoS
	TxComment              string
	CoinbasePayload        []byte
	DefaultWitnessCommitment string // hex, verbatim from template
	WitnessMerkleRoot      []byte  // set when the coin needs the commitment recomputed
	NeedsWitnessRecompute  bool
	Now                    func() time.Time // wall clock for the coinbase entropy push; defaults to time.Now
}

// Halves is the pair of byte blobs a Job caches and republishes through
// stratum_params.
type Halves struct {
	Initial []byte
	Final   []byte
}

// Build assembles coinbase_initial and coinbase_final per spec §4.3. txVersion
// and outputs come from the reward pipeline's Run (txVersion may have been
// overridden by a masternode coinbase_payload); Build itself never touches
// reward logic.
func Build(p Params, txVersion uint32, outputs []reward.Output) (Halves, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	var initial []byte
	initial = common.PutUint32LE(initial, txVersion)
	if p.IsPoS {
		initial = common.PutUint32LE(initial, p.PoSTimestamp)
	}
	initial = append(initial, common.VarInt(1)...) // input count
	initial = append(initial, make([]byte, 32)...) // null previous-output hash
	initial = common.PutUint32LE(initial, 0xffffffff)

	sigScriptInitial, err := buildSigScriptInitial(p, now())
	if err != nil {
		return Halves{}, err
	}

	scriptSigLen := len(sigScriptInitial) + p.PlaceholderLen + len(p.SigScriptFinal)
	initial = append(initial, common.VarInt(uint64(scriptSigLen))...)
	initial = append(initial, sigScriptInitial...)

	final, err := buildFinal(p, outputs)
	if err != nil {
		return Halves{}, err
	}

	return Halves{Initial: initial, Final: final}, nil
}

func buildSigScriptInitial(p Params, wallClock time.Time) ([]byte, error) {
	var script []byte
	script = append(script, common.PushInt64(p.Height)...)

	if !p.IgnoreAuxFlags && p.CoinbaseAuxFlagsHex != "" {
		flags, err := hex.DecodeString(p.CoinbaseAuxFlagsHex)
		if err != nil {
			return nil, errors.Wrap(err, "decoding coinbaseaux.flags")
		}
		script = append(script, common.PushData(flags)...)
	}

	script = append(script, common.PushInt64(wallClock.Unix())...)
	script = append(script, common.PushData(nil)...) // zero placeholder
	return script, nil
}

func buildFinal(p Params, outputs []reward.Output) ([]byte, error) {
	var final []byte
	final = append(final, p.SigScriptFinal...)
	final = common.PutUint32LE(final, 0) // nSequence

	hasWitnessCommitment := p.DefaultWitnessCommitment != "" || p.NeedsWitnessRecompute
	outCount := uint64(len(outputs))
	if hasWitnessCommitment {
		outCount++
	}
	final = append(final, common.VarInt(outCount)...)

	if hasWitnessCommitment {
		commitment, err := witnessCommitmentScript(p)
		if err != nil {
			return nil, err
		}
		final = common.PutUint64LE(final, 0)
		final = append(final, common.VarInt(uint64(len(commitment)))...)
		final = append(final, commitment...)
	}

	for _, out := range outputs {
		final = common.PutUint64LE(final, uint64(out.Value))
		final = append(final, common.VarInt(uint64(len(out.ScriptPubKey)))...)
		final = append(final, out.ScriptPubKey...)
	}

	final = common.PutUint32LE(final, 0) // nLockTime

	if p.TxComment != "" {
		final = append(final, common.VarInt(uint64(len(p.TxComment)))...)
		final = append(final, p.TxComment...)
	}
	if len(p.CoinbasePayload) > 0 {
		final = append(final, common.VarInt(uint64(len(p.CoinbasePayload)))...)
		final = append(final, p.CoinbasePayload...)
	}

	return final, nil
}

// witnessCommitmentScript returns the full scriptPubKey for the witness
// commitment output: either the template's default_witness_commitment bytes
// verbatim, or a freshly computed OP_RETURN 0xaa21a9ed ∥ sha256d(witness
// merkle root ∥ 32 zero bytes) for coins that need recomputation.
func witnessCommitmentScript(p Params) ([]byte, error) {
	if !p.NeedsWitnessRecompute {
		b, err := hex.DecodeString(p.DefaultWitnessCommitment)
		if err != nil {
			return nil, errors.Wrap(err, "decoding default_witness_commitment")
		}
		return b, nil
	}
	payload := append(append([]byte{}, p.WitnessMerkleRoot...), make([]byte, 32)...)
	h := sha256d.New()
	h.Write(payload)
	out := append([]byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}, h.Sum(nil)...)
	return out, nil
}

// ResolveScript turns a payee address into a scriptPubKey for net. When a
// raw pre-encoded script is given (some daemons hand back a script directly
// alongside, or instead of, an address), that script is used as-is and the
// address is not decoded.
func ResolveScript(address, preEncodedScriptHex string, net *chaincfg.Params) ([]byte, error) {
	if preEncodedScriptHex != "" {
		return hex.DecodeString(preEncodedScriptHex)
	}
	addr, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding address %q", address)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "building scriptPubKey for %q", address)
	}
	return script, nil
}
