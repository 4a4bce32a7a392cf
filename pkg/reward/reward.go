// Package reward applies a coin's enabled reward splits to a nascent
// coinbase output set, in the fixed order spec.md §4.2 requires: payee,
// masternode, founder, miner-dev-fund, miner-fund, community-autonomous,
// coinbase-dev-reward, foundation, community, data-mining, developer.
package reward

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/BartManX/miningcore/pkg/cointemplate"
)

// Output is one coinbase transaction output produced by a split: a value in
// satoshis and a scriptPubKey. Splits resolve addresses to scripts (see
// ResolveScript in pkg/coinbase) before producing an Output, so this package
// stays free of address-format concerns.
type Output struct {
	Value        int64
	ScriptPubKey []byte
}

// Target is one payee/amount entry as it appears, polymorphically, in a
// block template's reward-extra fields: either a single JSON object or an
// array of them.
type Target struct {
	Payee  string `json:"payee"`
	Script string `json:"script,omitempty"`
	Amount int64  `json:"amount"`
}

// DecodeTargets normalizes a template's reward-extra field, which may be
// encoded as either a single object or an array of objects, into a single
// slice (spec §9: "Model these as a tagged union resolved once in init").
func DecodeTargets(raw []byte, decodeOne func([]byte) (Target, error), decodeMany func([]byte) ([]Target, error)) ([]Target, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if many, err := decodeMany(raw); err == nil {
		return many, nil
	}
	one, err := decodeOne(raw)
	if err != nil {
		return nil, err
	}
	return []Target{one}, nil
}

// ScriptResolver turns a payee address/script entry into a scriptPubKey.
// pkg/coinbase supplies the concrete implementation (address decode +
// txscript.PayToAddrScript); kept as a function value here so this package
// has no dependency on a specific chain's address format.
type ScriptResolver func(t Target) ([]byte, error)

// Context is mutable split-to-split state: the running pool reward and the
// coinbase tx version, which the masternode split may need to overwrite
// when a coinbase_payload is present.
type Context struct {
	Template *cointemplate.BlockTemplate
	Coin     *cointemplate.CoinTemplate
	Resolve  ScriptResolver

	pool              int64
	coinbaseTxVersion uint32
	coinbasePayload   []byte
}

// NewContext seeds a split pipeline with the template's full coinbase value
// as the running pool reward.
func NewContext(tmpl *cointemplate.BlockTemplate, coin *cointemplate.CoinTemplate, resolve ScriptResolver) *Context {
	return &Context{
		Template:          tmpl,
		Coin:              coin,
		Resolve:           resolve,
		pool:              tmpl.CoinbaseValue,
		coinbaseTxVersion: coin.CoinbaseTxVersion,
	}
}

// RemainingPool returns the pool reward not yet claimed by an earlier split.
func (c *Context) RemainingPool() int64 { return c.pool }

// Deduct subtracts amt from the running pool reward. Every split but
// data-mining (when configured as non-deducting) calls this for each
// output it emits.
func (c *Context) Deduct(amt int64) { c.pool -= amt }

// CoinbaseTxVersion returns the coinbase transaction version, possibly
// overwritten by the masternode split.
func (c *Context) CoinbaseTxVersion() uint32 { return c.coinbaseTxVersion }

// CoinbasePayload returns the masternode coinbase_payload bytes, if the
// masternode split found and decoded one.
func (c *Context) CoinbasePayload() []byte { return c.coinbasePayload }

// setMasternodeType encodes the special-transaction version the masternode
// split applies when a coinbase_payload is present: version = 3 | (5 << 16).
func (c *Context) setMasternodeType(payload []byte) {
	c.coinbaseTxVersion = 3 | (5 << 16)
	c.coinbasePayload = payload
}

// resolveOutputs converts Targets into Outputs via ctx.Resolve, deducting
// from the pool unless deduct is false.
func resolveOutputs(ctx *Context, targets []Target, deduct bool) ([]Output, error) {
	outs := make([]Output, 0, len(targets))
	for _, t := range targets {
		script, err := ctx.Resolve(t)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving payee %q", t.Payee)
		}
		outs = append(outs, Output{Value: t.Amount, ScriptPubKey: script})
		if deduct {
			ctx.Deduct(t.Amount)
		}
	}
	return outs, nil
}

// Split is one reward-splitting policy. Apply has no side effects beyond
// Context mutation (pool deduction, coinbase version override); each call
// deducts again, so a pipeline applies every split once.
type Split interface {
	// Name identifies the split for diagnostics; matches the template's
	// extra-field key.
	Name() string
	// Enabled reports whether coin enables this split.
	Enabled(coin *cointemplate.CoinTemplate) bool
	// Apply produces this split's outputs, mutating ctx as needed.
	Apply(ctx *Context) ([]Output, error)
}

// Pipeline is the coin's precomputed, ordered list of enabled splits,
// built once at Job init time so process_share never has to branch on
// has_* flags (spec §9: "avoid per-share branching by precomputing the
// split pipeline at init time").
type Pipeline []Split

// BuildPipeline filters the fixed split order down to the ones coin enables.
func BuildPipeline(coin *cointemplate.CoinTemplate) Pipeline {
	all := []Split{
		payeeSplit{}, masternodeSplit{}, founderSplit{}, minerDevFundSplit{},
		minerFundSplit{}, communityAutonomousSplit{}, coinbaseDevRewardSplit{},
		foundationSplit{}, communitySplit{}, dataMiningSplit{}, developerSplit{},
	}
	var pipeline Pipeline
	for _, s := range all {
		if s.Enabled(coin) {
			pipeline = append(pipeline, s)
		}
	}
	return pipeline
}

// Run applies every split in order, then appends a final output paying the
// remaining pool reward to poolScript. Returns the full coinbase output set
// in order, and the (possibly masternode-overridden) coinbase tx version.
func (p Pipeline) Run(ctx *Context, poolScript []byte) ([]Output, uint32, error) {
	var outs []Output
	for _, split := range p {
		splitOuts, err := split.Apply(ctx)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "applying %s split", split.Name())
		}
		outs = append(outs, splitOuts...)
	}
	outs = append(outs, Output{Value: ctx.RemainingPool(), ScriptPubKey: poolScript})
	return outs, ctx.CoinbaseTxVersion(), nil
}

func decodeHexPayload(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}
