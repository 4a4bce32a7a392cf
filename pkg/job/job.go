// Package job owns the per-block-template state a Stratum server hands out
// to miners and validates their submissions against: coinbase halves,
// merkle branches, block target, and the duplicate-submission registry. A
// Job is built once by Init and is immutable afterward except for the
// registry (spec §4.4, §5).
package job

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/BartManX/miningcore/pkg/coinbase"
	"github.com/BartManX/miningcore/pkg/cointemplate"
	"github.com/BartManX/miningcore/pkg/common"
	"github.com/BartManX/miningcore/pkg/hashalgo"
	"github.com/BartManX/miningcore/pkg/merkle"
	"github.com/BartManX/miningcore/pkg/reward"
)

// Config carries the pool-wide and operator-chosen inputs to Init that
// aren't already part of the block template or coin template: the
// equivalent of the teacher's pool_config/cluster_config parameters,
// narrowed to what this core actually consumes.
type Config struct {
	// PoolDestination is the pool's own payout scriptPubKey; the final
	// reward-pipeline output always pays this.
	PoolDestination []byte
	// PlaceholderLen is extranonce1_size + extranonce2_size, fixed pool-wide.
	PlaceholderLen int
	Network        string
	IsPoS          bool
	// ShareMultiplier scales reported share difficulty; coin-specific.
	ShareMultiplier float64

	CoinbaseHasher hashalgo.Digest
	HeaderHasher   hashalgo.Digest
	BlockHasher    hashalgo.Digest

	Resolve reward.ScriptResolver

	// Clock supplies the wall-clock reads Init and ProcessShare need
	// (coinbase entropy push, ntime upper bound). Defaults to time.Now.
	Clock func() time.Time
}

// StratumParams is the 9-tuple returned by mining.notify, per spec §6.
type StratumParams struct {
	JobID                     string
	PreviousBlockHashReversed string
	CoinbaseInitial           string
	CoinbaseFinal             string
	MerkleBranches            []string
	Version                   string
	Bits                      string
	CurTime                   string
	IsNew                     bool
}

// WorkerContext is the per-connection state a Stratum server passes into
// ProcessShare: everything about the submitting miner that Job itself never
// owns (spec §3 "WorkerContext (consumed)").
type WorkerContext struct {
	ExtraNonce1            string
	Difficulty             float64
	PreviousDifficulty     float64
	HasPreviousDifficulty  bool
	VardiffLastUpdate      time.Time
	VersionRollingMask     *uint32
}

// Share is the result of a successful ProcessShare call.
type Share struct {
	BlockHeight       int64
	NetworkDifficulty float64
	Difficulty        float64
	IsBlockCandidate  bool
	BlockHash         string
}

// Job is the immutable-after-init object a Stratum server builds once per
// block template and shares across every worker connection.
type Job struct {
	jobID string

	prevBlockHashInternal []byte
	prevBlockHashReversed string

	coinbaseInitial []byte
	coinbaseFinal   []byte

	merkleTree     *merkle.Tree
	merkleBranches []string

	versionU32 uint32
	bitsU32    uint32
	curTime    int64

	blockTarget *big.Int
	diff1       *big.Int
	difficulty  float64

	shareMultiplier float64

	coin     *cointemplate.CoinTemplate
	template *cointemplate.BlockTemplate

	transactions [][]byte
	isPoS        bool
	network      string

	coinbaseHasher hashalgo.Digest
	headerHasher   hashalgo.Digest
	blockHasher    hashalgo.Digest

	clock func() time.Time

	mwebBytes []byte

	submissions *submissionRegistry

	stratumParams StratumParams
}

// Init builds a Job from a block template, per spec §4.4. Invariant
// violations (missing fields, unparseable target) are construction
// failures, not share-processing errors.
func Init(tmpl *cointemplate.BlockTemplate, jobID string, coin *cointemplate.CoinTemplate, cfg Config) (*Job, error) {
	if jobID == "" {
		return nil, errors.New("job: job_id must not be empty")
	}
	if tmpl == nil || coin == nil {
		return nil, errors.New("job: block template and coin template are required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	diff1, err := cointemplate.Diff1(coin.Diff1)
	if err != nil {
		return nil, errors.Wrap(err, "job: parsing coin diff1")
	}
	blockTarget, err := tmpl.TargetBig()
	if err != nil {
		return nil, errors.Wrap(err, "job: resolving block target")
	}
	difficulty := cointemplate.Difficulty(diff1, blockTarget)

	prevHashDisplay, err := tmpl.DecodedPreviousBlockHash()
	if err != nil {
		return nil, errors.Wrap(err, "job: decoding previousblockhash")
	}
	prevHashInternal := common.ReversedCopy(prevHashDisplay)
	prevHashReversedHex := hex.EncodeToString(prevHashInternal)

	bitsU32, err := strconv.ParseUint(coalesce(tmpl.Bits, "0"), 16, 32)
	if err != nil {
		return nil, errors.Wrap(err, "job: parsing bits")
	}

	transactions, err := tmpl.DecodedTransactions()
	if err != nil {
		return nil, errors.Wrap(err, "job: decoding template transactions")
	}
	leaves := make([][]byte, 0, len(tmpl.Transactions))
	for i, tx := range tmpl.Transactions {
		h, err := hex.DecodeString(tx.Hash)
		if err != nil {
			return nil, errors.Wrapf(err, "job: decoding transaction %d hash", i)
		}
		leaves = append(leaves, common.ReversedCopy(h))
	}
	tree := merkle.New(leaves)

	sigScriptFinal := common.PushData([]byte(coalesceCoinbaseString(coin.CoinbaseString)))

	resolve := cfg.Resolve
	if resolve == nil {
		return nil, errors.New("job: a reward.ScriptResolver is required")
	}
	rewardCtx := reward.NewContext(tmpl, coin, resolve)
	pipeline := reward.BuildPipeline(coin)
	outputs, coinbaseTxVersion, err := pipeline.Run(rewardCtx, cfg.PoolDestination)
	if err != nil {
		return nil, errors.Wrap(err, "job: running reward pipeline")
	}

	auxFlagsHex := ""
	if !coin.CoinbaseIgnoreAuxFlags {
		auxFlagsHex = tmpl.CoinbaseAux.Flags
	}

	needsWitnessRecompute := coin.HasSegwit && tmpl.DefaultWitnessCommitment == ""
	var witnessMerkleRoot []byte
	if needsWitnessRecompute {
		witnessMerkleRoot = merkle.Root(append([][]byte{make([]byte, 32)}, leaves...))
	}

	cbParams := coinbase.Params{
		Height:                   tmpl.Height,
		PlaceholderLen:           cfg.PlaceholderLen,
		CoinbaseAuxFlagsHex:      auxFlagsHex,
		IgnoreAuxFlags:           coin.CoinbaseIgnoreAuxFlags,
		SigScriptFinal:           sigScriptFinal,
		IsPoS:                    cfg.IsPoS,
		PoSTimestamp:             uint32(tmpl.CurTime),
		TxComment:                coin.CoinbaseTxComment,
		CoinbasePayload:          rewardCtx.CoinbasePayload(),
		DefaultWitnessCommitment: tmpl.DefaultWitnessCommitment,
		WitnessMerkleRoot:        witnessMerkleRoot,
		NeedsWitnessRecompute:    needsWitnessRecompute,
		Now:                      clock,
	}
	halves, err := coinbase.Build(cbParams, coinbaseTxVersion, outputs)
	if err != nil {
		return nil, errors.Wrap(err, "job: building coinbase")
	}

	branchHex := make([]string, len(tree.Branch()))
	for i, step := range tree.Branch() {
		branchHex[i] = hex.EncodeToString(step)
	}

	var mwebBytes []byte
	if coin.HasMWEB {
		if raw := tmpl.Extra.Get("mweb"); len(raw) > 0 {
			var mwebHex string
			if err := jsonUnmarshalString(raw, &mwebHex); err == nil && mwebHex != "" {
				if b, err := hex.DecodeString(mwebHex); err == nil {
					mwebBytes = b
				}
			}
		}
	}

	j := &Job{
		jobID:                 jobID,
		prevBlockHashInternal: prevHashInternal,
		prevBlockHashReversed: prevHashReversedHex,
		coinbaseInitial:       halves.Initial,
		coinbaseFinal:         halves.Final,
		merkleTree:            tree,
		merkleBranches:        branchHex,
		versionU32:            uint32(tmpl.Version),
		bitsU32:               uint32(bitsU32),
		curTime:               tmpl.CurTime,
		blockTarget:           blockTarget,
		diff1:                 diff1,
		difficulty:            difficulty,
		shareMultiplier:       cfg.ShareMultiplier,
		coin:                  coin,
		template:              tmpl,
		transactions:          transactions,
		isPoS:                 cfg.IsPoS,
		network:               cfg.Network,
		coinbaseHasher:        cfg.CoinbaseHasher,
		headerHasher:          cfg.HeaderHasher,
		blockHasher:           cfg.BlockHasher,
		clock:                 clock,
		mwebBytes:             mwebBytes,
		submissions:           &submissionRegistry{},
	}

	j.stratumParams = StratumParams{
		JobID:                     j.jobID,
		PreviousBlockHashReversed: j.prevBlockHashReversed,
		CoinbaseInitial:           hex.EncodeToString(j.coinbaseInitial),
		CoinbaseFinal:             hex.EncodeToString(j.coinbaseFinal),
		MerkleBranches:            j.merkleBranches,
		Version:                   fmt.Sprintf("%08x", j.versionU32),
		Bits:                      tmpl.Bits,
		CurTime:                   fmt.Sprintf("%08x", uint32(tmpl.CurTime)),
	}

	return j, nil
}

// StratumParams returns the job-params tuple, stamping is_new as requested.
func (j *Job) StratumParams(isNew bool) StratumParams {
	p := j.stratumParams
	p.IsNew = isNew
	return p
}

// JobID returns the opaque caller-assigned job identifier.
func (j *Job) JobID() string { return j.jobID }

// BlockHeight returns the template height this job was built from.
func (j *Job) BlockHeight() int64 { return j.template.Height }

// Difficulty returns the network difficulty implied by the job's target.
func (j *Job) Difficulty() float64 { return j.difficulty }

func coalesce(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func coalesceCoinbaseString(s string) string {
	if s == "" {
		return "Miningcore"
	}
	return s
}

func jsonUnmarshalString(raw json.RawMessage, out *string) error {
	return json.Unmarshal(raw, out)
}
