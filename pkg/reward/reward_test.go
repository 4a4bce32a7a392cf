package reward

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartManX/miningcore/pkg/cointemplate"
)

func stubResolve(t Target) ([]byte, error) {
	return []byte("script:" + t.Payee), nil
}

func newTemplate(t *testing.T, extras map[string]interface{}) *cointemplate.BlockTemplate {
	t.Helper()
	raw := map[string]interface{}{"coinbasevalue": int64(5000000000)}
	for k, v := range extras {
		raw[k] = v
	}
	b, err := json.Marshal(raw)
	require.NoError(t, err)
	var tmpl cointemplate.BlockTemplate
	require.NoError(t, json.Unmarshal(b, &tmpl))
	return &tmpl
}

func TestRunOrdersSplitsAndPaysRemainderToPool(t *testing.T) {
	coin := &cointemplate.CoinTemplate{HasPayee: true, HasDeveloper: true}
	tmpl := newTemplate(t, map[string]interface{}{
		"payee":     map[string]interface{}{"payee": "payee-addr", "amount": int64(100)},
		"developer": map[string]interface{}{"payee": "dev-addr", "amount": int64(50)},
	})

	ctx := NewContext(tmpl, coin, stubResolve)
	pipeline := BuildPipeline(coin)
	outs, _, err := pipeline.Run(ctx, []byte("pool-script"))
	require.NoError(t, err)

	require.Len(t, outs, 3)
	assert.Equal(t, []byte("script:payee-addr"), outs[0].ScriptPubKey)
	assert.Equal(t, []byte("script:dev-addr"), outs[1].ScriptPubKey)
	assert.Equal(t, []byte("pool-script"), outs[2].ScriptPubKey)
	assert.Equal(t, int64(5000000000-100-50), outs[2].Value)
}

func TestDataMiningDefaultDoesNotDeductFromPool(t *testing.T) {
	coin := &cointemplate.CoinTemplate{HasDataMining: true}
	tmpl := newTemplate(t, map[string]interface{}{
		"datamining": map[string]interface{}{"payee": "dm-addr", "amount": int64(777)},
	})

	ctx := NewContext(tmpl, coin, stubResolve)
	pipeline := BuildPipeline(coin)
	outs, _, err := pipeline.Run(ctx, []byte("pool-script"))
	require.NoError(t, err)

	require.Len(t, outs, 2)
	assert.Equal(t, int64(5000000000), outs[1].Value, "pool output should not shrink when datamining is a pure subsidy")
}

func TestDataMiningDeductsWhenConfigured(t *testing.T) {
	coin := &cointemplate.CoinTemplate{HasDataMining: true, DataMiningDeductsFromPool: true}
	tmpl := newTemplate(t, map[string]interface{}{
		"datamining": map[string]interface{}{"payee": "dm-addr", "amount": int64(777)},
	})

	ctx := NewContext(tmpl, coin, stubResolve)
	pipeline := BuildPipeline(coin)
	outs, _, err := pipeline.Run(ctx, []byte("pool-script"))
	require.NoError(t, err)

	assert.Equal(t, int64(5000000000-777), outs[1].Value)
}

func TestMasternodePayloadRetypesCoinbaseVersion(t *testing.T) {
	coin := &cointemplate.CoinTemplate{HasMasternode: true, CoinbaseTxVersion: 1}
	payloadHex := "aabbcc"
	tmpl := newTemplate(t, map[string]interface{}{
		"masternode":      map[string]interface{}{"payee": "mn-addr", "amount": int64(200)},
		"coinbase_payload": payloadHex,
	})

	ctx := NewContext(tmpl, coin, stubResolve)
	pipeline := BuildPipeline(coin)
	_, txVersion, err := pipeline.Run(ctx, []byte("pool-script"))
	require.NoError(t, err)

	assert.Equal(t, uint32(3|(5<<16)), txVersion)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, ctx.CoinbasePayload())
}

func TestCoinbaseDevRewardArrayFlagGatesDecoding(t *testing.T) {
	coin := &cointemplate.CoinTemplate{HasCoinbaseDevReward: true, CoinbaseDevRewardIsArray: true}
	tmpl := newTemplate(t, map[string]interface{}{
		"coinbase-dev-reward": []map[string]interface{}{
			{"payee": "a", "amount": int64(1)},
			{"payee": "b", "amount": int64(2)},
		},
	})

	ctx := NewContext(tmpl, coin, stubResolve)
	pipeline := BuildPipeline(coin)
	outs, _, err := pipeline.Run(ctx, []byte("pool-script"))
	require.NoError(t, err)
	require.Len(t, outs, 3)
	assert.Equal(t, []byte("script:a"), outs[0].ScriptPubKey)
	assert.Equal(t, []byte("script:b"), outs[1].ScriptPubKey)
}

func TestDecodeTargetsHandlesSingleAndArray(t *testing.T) {
	single, err := DecodeTargets([]byte(`{"payee":"x","amount":1}`), decodeOneTarget, decodeManyTargets)
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "x", single[0].Payee)

	many, err := DecodeTargets([]byte(`[{"payee":"x","amount":1},{"payee":"y","amount":2}]`), decodeOneTarget, decodeManyTargets)
	require.NoError(t, err)
	require.Len(t, many, 2)
}

func TestDecodeTargetsEmptyReturnsNil(t *testing.T) {
	targets, err := DecodeTargets(nil, decodeOneTarget, decodeManyTargets)
	require.NoError(t, err)
	assert.Nil(t, targets)
}
