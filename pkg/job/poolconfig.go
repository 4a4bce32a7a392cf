package job

// PoolRuntimeConfig is the pool-wide runtime configuration a Job.Init
// caller assembles from etcd/yaml config: extranonce sizing, the pool's
// payout destination, daemon RPC coordinates and hash-algorithm choices.
// It is the config document ngctl's "pool" service type manages and
// cmd/ngstratum's daemon loop decodes per coin (spec §4.4's
// "pool_config"/"cluster_config" Init inputs, narrowed to what this core
// actually consumes).
type PoolRuntimeConfig struct {
	RPCURL          string  `mapstructure:"rpc_url"`
	RPCUser         string  `mapstructure:"rpc_user"`
	RPCPass         string  `mapstructure:"rpc_pass"`
	PoolAddress     string  `mapstructure:"pool_address"`
	PoolScriptHex   string  `mapstructure:"pool_script"`
	ExtraNonce1Size int     `mapstructure:"extranonce1_size"`
	ExtraNonce2Size int     `mapstructure:"extranonce2_size"`
	ShareMultiplier float64 `mapstructure:"share_multiplier"`
	CoinbaseHasher  string  `mapstructure:"coinbase_hasher"`
	HeaderHasher    string  `mapstructure:"header_hasher"`
	BlockHasher     string  `mapstructure:"block_hasher"`
}
