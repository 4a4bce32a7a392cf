package cointemplate

import (
	"strings"

	log "github.com/inconshreveable/log15"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// CoinTemplate is the per-coin configuration that drives coinbase layout,
// reward splitting and block serialization. One is loaded per configured
// currency, the way the teacher's ShareChainConfig is loaded per sharechain.
type CoinTemplate struct {
	Symbol string `mapstructure:"symbol" json:"symbol"`

	CoinbaseTxVersion  uint32 `mapstructure:"coinbase_tx_version" json:"coinbase_tx_version"`
	CoinbaseTxComment  string `mapstructure:"coinbase_tx_comment" json:"coinbase_tx_comment"`
	CoinbaseString     string `mapstructure:"coinbase_string" json:"coinbase_string"`
	Diff1              string `mapstructure:"diff1" json:"diff1"`
	Network            string `mapstructure:"network" json:"network"`

	HasPayee               bool `mapstructure:"has_payee" json:"has_payee"`
	HasMasternode          bool `mapstructure:"has_masternode" json:"has_masternode"`
	HasFounder             bool `mapstructure:"has_founder" json:"has_founder"`
	HasMinerDevFund        bool `mapstructure:"has_minerdevfund" json:"has_minerdevfund"`
	HasMinerFund           bool `mapstructure:"has_minerfund" json:"has_minerfund"`
	HasCommunityAutonomous bool `mapstructure:"has_community_autonomous" json:"has_community_autonomous"`
	HasCoinbaseDevReward   bool `mapstructure:"has_coinbase_dev_reward" json:"has_coinbase_dev_reward"`
	HasFoundation          bool `mapstructure:"has_foundation" json:"has_foundation"`
	HasCommunity           bool `mapstructure:"has_community" json:"has_community"`
	HasDataMining          bool `mapstructure:"has_datamining" json:"has_datamining"`
	HasDeveloper           bool `mapstructure:"has_developer" json:"has_developer"`

	IsPoS                  bool `mapstructure:"is_pos" json:"is_pos"`
	HasSegwit              bool `mapstructure:"has_segwit" json:"has_segwit"`
	HasMWEB                bool `mapstructure:"has_mweb" json:"has_mweb"`
	CoinbaseIgnoreAuxFlags bool `mapstructure:"coinbase_ignore_aux_flags" json:"coinbase_ignore_aux_flags"`

	// DataMiningDeductsFromPool and CoinbaseDevRewardIsArray resolve the two
	// open questions in spec §9 as explicit configuration rather than a
	// silently-picked default.
	DataMiningDeductsFromPool bool `mapstructure:"datamining_deducts_from_pool" json:"datamining_deducts_from_pool"`
	CoinbaseDevRewardIsArray  bool `mapstructure:"coinbase_dev_reward_is_array" json:"coinbase_dev_reward_is_array"`

	ExplorerBlockLink string `mapstructure:"explorer_block_link" json:"explorer_block_link"`
	ExplorerTxLink    string `mapstructure:"explorer_tx_link" json:"explorer_tx_link"`
	ExplorerAddrLink  string `mapstructure:"explorer_address_link" json:"explorer_address_link"`
}

// CoinTemplates is the process-wide registry of loaded coin configs, mirroring
// the teacher's package-level ShareChain map in pkg/service/chain.go.
var CoinTemplates = map[string]*CoinTemplate{}

// SetupCoinTemplates decodes a raw config map (one entry per coin symbol, as
// loaded from etcd/yaml by viper) into CoinTemplates.
func SetupCoinTemplates(rawConfig map[string]interface{}) error {
	for name, raw := range rawConfig {
		coin := CoinTemplate{
			Symbol:   strings.ToUpper(name),
			Diff1:    BitcoinDiff1Hex,
			CoinbaseString: "Miningcore",
		}
		if err := mapstructure.Decode(raw, &coin); err != nil {
			return errors.Wrapf(err, "decoding coin template %s", name)
		}
		if coin.CoinbaseTxVersion == 0 {
			coin.CoinbaseTxVersion = 1
		}
		log.Debug("decoded coin template", "coin", coin.Symbol)
		CoinTemplates[coin.Symbol] = &coin
	}
	return nil
}
