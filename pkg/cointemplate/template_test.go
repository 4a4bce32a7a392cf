package cointemplate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplate = `{
	"height": 700000,
	"previousblockhash": "00000000000000000000000000000000000000000000000000000000000001",
	"version": 536870912,
	"bits": "1d00ffff",
	"curtime": 1700000000,
	"coinbasevalue": 5000000000,
	"transactions": [{"txid":"aa","hash":"aa","data":"deadbeef"}],
	"masternode": {"payee": "someaddr", "amount": 100000},
	"coinbaseaux": {"flags": "ab"}
}`

func TestBlockTemplateUnmarshalSplitsKnownAndExtra(t *testing.T) {
	var tmpl BlockTemplate
	require.NoError(t, json.Unmarshal([]byte(sampleTemplate), &tmpl))

	assert.Equal(t, int64(700000), tmpl.Height)
	assert.Equal(t, int64(5000000000), tmpl.CoinbaseValue)
	assert.Equal(t, "ab", tmpl.CoinbaseAux.Flags)

	masternode := tmpl.Extra.Get("masternode")
	require.NotNil(t, masternode)
	assert.Contains(t, string(masternode), "someaddr")

	assert.Nil(t, tmpl.Extra.Get("height"))
}

func TestDecodedTransactions(t *testing.T) {
	var tmpl BlockTemplate
	require.NoError(t, json.Unmarshal([]byte(sampleTemplate), &tmpl))

	txs, err := tmpl.DecodedTransactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, txs[0])
}

func TestDecodedBitsRejectsShortHex(t *testing.T) {
	tmpl := &BlockTemplate{Bits: "aabb"}
	_, err := tmpl.DecodedBits()
	assert.Error(t, err)
}

func TestDecodedPreviousBlockHashRejectsShortHex(t *testing.T) {
	tmpl := &BlockTemplate{PreviousBlockHash: "aabb"}
	_, err := tmpl.DecodedPreviousBlockHash()
	assert.Error(t, err)
}
