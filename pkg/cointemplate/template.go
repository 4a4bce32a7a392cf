// Package cointemplate holds the data received from the daemon
// (BlockTemplate) and the per-coin configuration (CoinTemplate) that drives
// every other package's behavior.
package cointemplate

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// TxEntry is one transaction as handed back by getblocktemplate: already
// serialized, already hashed by the daemon.
type TxEntry struct {
	TxID string `json:"txid,omitempty"`
	Hash string `json:"hash"`
	Data string `json:"data"`
}

// CoinbaseAux carries the coinbaseaux.flags hex blob some daemons embed in
// the template, pushed verbatim into the coinbase scriptSig unless the coin
// disables it (CoinTemplate.CoinbaseIgnoreAuxFlags).
type CoinbaseAux struct {
	Flags string `json:"flags,omitempty"`
}

// knownFields lists the BlockTemplate JSON keys with dedicated struct
// fields; everything else in the raw document falls through to Extra, the
// coin-specific reward bag (masternode, payee, founder, ...).
var knownFields = map[string]bool{
	"height":                     true,
	"previousblockhash":          true,
	"version":                    true,
	"bits":                       true,
	"target":                     true,
	"curtime":                    true,
	"coinbasevalue":              true,
	"transactions":               true,
	"default_witness_commitment": true,
	"coinbaseaux":                true,
}

// BlockTemplate is the immutable input fetched from the coin daemon for one
// job. Extra holds every coin-specific reward field the daemon attached
// (payee, masternode, founder, minerfund, minerdevfund, community,
// datamining, developer, foundation, coinbase-dev-reward,
// community-autonomous, mweb) as raw JSON, resolved by pkg/reward.
type BlockTemplate struct {
	Height                   int64         `json:"height"`
	PreviousBlockHash        string        `json:"previousblockhash"`
	Version                  int32         `json:"version"`
	Bits                     string        `json:"bits"`
	Target                   string        `json:"target,omitempty"`
	CurTime                  int64         `json:"curtime"`
	CoinbaseValue            int64         `json:"coinbasevalue"`
	Transactions             []TxEntry     `json:"transactions"`
	DefaultWitnessCommitment string        `json:"default_witness_commitment,omitempty"`
	CoinbaseAux              CoinbaseAux   `json:"coinbaseaux,omitempty"`
	Extra                    ExtraFields   `json:"-"`
}

// ExtraFields is the coin-specific reward bag, keyed by the daemon's field
// name and holding the raw JSON so pkg/reward can decode each as either a
// single object or an array of objects (spec's polymorphic reward extras).
type ExtraFields map[string]json.RawMessage

// Get returns the raw JSON for key, or nil if the template didn't carry it.
func (e ExtraFields) Get(key string) json.RawMessage {
	if e == nil {
		return nil
	}
	return e[key]
}

// UnmarshalJSON decodes the known fields into their struct slots and stashes
// everything else into Extra.
func (t *BlockTemplate) UnmarshalJSON(data []byte) error {
	type alias BlockTemplate
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return errors.Wrap(err, "decode block template")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode block template extras")
	}
	extra := make(ExtraFields, len(raw))
	for k, v := range raw {
		if knownFields[k] {
			continue
		}
		extra[k] = v
	}

	*t = BlockTemplate(a)
	t.Extra = extra
	return nil
}

// DecodedPreviousBlockHash returns the previous-block hash bytes in the
// byte order they appear in the template's hex string (big-endian display
// order); callers reverse them into internal order for header assembly.
func (t *BlockTemplate) DecodedPreviousBlockHash() ([]byte, error) {
	b, err := hex.DecodeString(t.PreviousBlockHash)
	if err != nil {
		return nil, errors.Wrap(err, "invalid previousblockhash")
	}
	if len(b) != 32 {
		return nil, errors.Errorf("previousblockhash must decode to 32 bytes, got %d", len(b))
	}
	return b, nil
}

// DecodedBits returns the compact-target bits field as raw bytes, in the
// byte order they appear in the template's hex string (big-endian; callers
// reverse as needed for header assembly).
func (t *BlockTemplate) DecodedBits() ([]byte, error) {
	b, err := hex.DecodeString(t.Bits)
	if err != nil {
		return nil, errors.Wrap(err, "invalid bits")
	}
	if len(b) != 4 {
		return nil, errors.Errorf("bits must decode to 4 bytes, got %d", len(b))
	}
	return b, nil
}

// DecodedTransactions decodes every template transaction's raw data.
func (t *BlockTemplate) DecodedTransactions() ([][]byte, error) {
	out := make([][]byte, 0, len(t.Transactions))
	for i, tx := range t.Transactions {
		b, err := hex.DecodeString(tx.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid data for transaction %d", i)
		}
		out = append(out, b)
	}
	return out, nil
}
