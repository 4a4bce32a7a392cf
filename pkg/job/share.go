package job

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/BartManX/miningcore/pkg/common"
	"github.com/BartManX/miningcore/pkg/hashalgo"
)

const acceptRatioThreshold = 0.99

// ProcessShare validates one mining.submit against j, per spec §4.5. Gates
// run in the order the spec fixes; the first failure wins. Duplicate
// detection is the only gate with a side effect (it inserts the key before
// returning).
func (j *Job) ProcessShare(worker *WorkerContext, extranonce2, nTimeHex, nonceHex, versionBitsHex string) (*Share, string, error) {
	if len(nTimeHex) != 8 {
		return nil, "", errOther("incorrect size of ntime")
	}
	nTimeVal64, err := strconv.ParseUint(nTimeHex, 16, 32)
	if err != nil {
		return nil, "", errOther("incorrect size of ntime")
	}
	nTimeVal := uint32(nTimeVal64)

	now := j.clock()
	if int64(nTimeVal) < j.curTime || int64(nTimeVal) > now.Unix()+7200 {
		return nil, "", errOther("ntime out of range")
	}

	if len(nonceHex) != 8 {
		return nil, "", errOther("incorrect size of nonce")
	}
	nonceVal64, err := strconv.ParseUint(nonceHex, 16, 32)
	if err != nil {
		return nil, "", errOther("incorrect size of nonce")
	}
	nonceVal := uint32(nonceVal64)

	versionFinal := j.versionU32
	if worker.VersionRollingMask != nil && versionBitsHex != "" {
		mask := *worker.VersionRollingMask
		bits64, err := strconv.ParseUint(versionBitsHex, 16, 32)
		if err != nil {
			return nil, "", errOther("rolling-version mask violation")
		}
		bits := uint32(bits64)
		if bits & ^mask != 0 {
			return nil, "", errOther("rolling-version mask violation")
		}
		versionFinal = (j.versionU32 &^ mask) | bits
	}

	key := submissionKey(worker.ExtraNonce1, extranonce2, nTimeHex, nonceHex)
	if !j.submissions.insertIfAbsent(key) {
		return nil, "", errDuplicateShare
	}

	en1, err := hex.DecodeString(worker.ExtraNonce1)
	if err != nil {
		return nil, "", errOtherf("invalid extranonce1: %v", err)
	}
	en2, err := hex.DecodeString(extranonce2)
	if err != nil {
		return nil, "", errOtherf("invalid extranonce2: %v", err)
	}

	coinbase := make([]byte, 0, len(j.coinbaseInitial)+len(en1)+len(en2)+len(j.coinbaseFinal))
	coinbase = append(coinbase, j.coinbaseInitial...)
	coinbase = append(coinbase, en1...)
	coinbase = append(coinbase, en2...)
	coinbase = append(coinbase, j.coinbaseFinal...)

	coinbaseHash := j.coinbaseHasher(coinbase, hashalgo.SideInputs{Network: j.network})
	merkleRoot := j.merkleTree.WithFirst(coinbaseHash[:])

	header := make([]byte, 0, 80)
	header = common.PutUint32LE(header, versionFinal)
	header = append(header, j.prevBlockHashInternal...)
	header = append(header, merkleRoot...)
	header = common.PutUint32LE(header, nTimeVal)
	header = common.PutUint32LE(header, j.bitsU32)
	header = common.PutUint32LE(header, nonceVal)

	side := hashalgo.SideInputs{NTime: nTimeVal, Bits: j.bitsU32, Network: j.network}
	headerHash := j.headerHasher(header, side)
	H := new(big.Int).SetBytes(common.ReversedCopy(append([]byte{}, headerHash[:]...)))

	isCandidate := H.Cmp(j.blockTarget) <= 0

	multiplier := j.shareMultiplier
	if multiplier == 0 {
		multiplier = 1
	}
	dShare := shareDifficulty(j.diff1, H, multiplier)

	accepted := isCandidate
	acceptedDiff := dShare
	if !accepted {
		if ratio(dShare, worker.Difficulty) >= acceptRatioThreshold {
			accepted = true
		} else if worker.HasPreviousDifficulty && ratio(dShare, worker.PreviousDifficulty) >= acceptRatioThreshold {
			accepted = true
		}
	}
	if !accepted {
		return nil, "", errLowDifficultyShare
	}

	share := &Share{
		BlockHeight:       j.template.Height,
		NetworkDifficulty: j.difficulty,
		Difficulty:        acceptedDiff / multiplier,
		IsBlockCandidate:  isCandidate,
	}

	if !isCandidate {
		return share, "", nil
	}

	blockHash := j.blockHasher(header, side)
	share.BlockHash = hex.EncodeToString(common.ReversedCopy(append([]byte{}, blockHash[:]...)))

	blockHex := hex.EncodeToString(serializeBlock(header, coinbase, j.transactions, j.isPoS, j.mwebBytes))
	return share, blockHex, nil
}

// shareDifficulty computes D_share = (diff1 / H) * multiplier as a float.
func shareDifficulty(diff1, H *big.Int, multiplier float64) float64 {
	if H.Sign() == 0 {
		return 0
	}
	num := new(big.Float).SetInt(diff1)
	den := new(big.Float).SetInt(H)
	f, _ := new(big.Float).Quo(num, den).Float64()
	return f * multiplier
}

func ratio(dShare, workerDiff float64) float64 {
	if workerDiff == 0 {
		return 0
	}
	return dShare / workerDiff
}
