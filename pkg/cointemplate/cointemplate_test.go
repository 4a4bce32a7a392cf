package cointemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupCoinTemplatesDecodesAndDefaults(t *testing.T) {
	defer delete(CoinTemplates, "TEST")

	raw := map[string]interface{}{
		"test": map[string]interface{}{
			"network":       "mainnet",
			"has_payee":     true,
			"has_segwit":    true,
			"coinbase_tx_comment": "hello",
		},
	}
	require.NoError(t, SetupCoinTemplates(raw))

	coin, ok := CoinTemplates["TEST"]
	require.True(t, ok)
	assert.Equal(t, "TEST", coin.Symbol)
	assert.Equal(t, "mainnet", coin.Network)
	assert.True(t, coin.HasPayee)
	assert.True(t, coin.HasSegwit)
	assert.Equal(t, uint32(1), coin.CoinbaseTxVersion, "zero tx version should default to 1")
	assert.Equal(t, BitcoinDiff1Hex, coin.Diff1)
	assert.Equal(t, "Miningcore", coin.CoinbaseString)
}

func TestSetupCoinTemplatesPreservesExplicitTxVersion(t *testing.T) {
	defer delete(CoinTemplates, "TEST2")

	raw := map[string]interface{}{
		"test2": map[string]interface{}{
			"coinbase_tx_version": 2,
		},
	}
	require.NoError(t, SetupCoinTemplates(raw))
	assert.Equal(t, uint32(2), CoinTemplates["TEST2"].CoinbaseTxVersion)
}
