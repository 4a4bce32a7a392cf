package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/inconshreveable/log15"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BartManX/miningcore/pkg/coinbase"
	"github.com/BartManX/miningcore/pkg/cointemplate"
	"github.com/BartManX/miningcore/pkg/hashalgo"
	"github.com/BartManX/miningcore/pkg/job"
	"github.com/BartManX/miningcore/pkg/reward"
	"github.com/BartManX/miningcore/pkg/rpc"
	"github.com/BartManX/miningcore/pkg/service"
)

// buildJob wires a fetched block template, its coin template and the
// pool's runtime config into a job.Job, resolving hash algorithms and the
// pool payout script along the way. This is the CLI/daemon glue spec §4.4
// leaves external: the Job's own Init never touches etcd, RPC, or chain
// params resolution directly.
func buildJob(jobID string, tmpl *cointemplate.BlockTemplate, coin *cointemplate.CoinTemplate, pool job.PoolRuntimeConfig) (*job.Job, error) {
	netParams, err := resolveNetParams(coin.Network)
	if err != nil {
		return nil, err
	}

	coinbaseHasherName := defaultHasher(pool.CoinbaseHasher)
	headerHasherName := defaultHasher(pool.HeaderHasher)
	blockHasherName := defaultHasher(pool.BlockHasher)

	coinbaseHasher, err := hashalgo.Lookup(coinbaseHasherName)
	if err != nil {
		return nil, err
	}
	headerHasher, err := hashalgo.Lookup(headerHasherName)
	if err != nil {
		return nil, err
	}
	blockHasher, err := hashalgo.Lookup(blockHasherName)
	if err != nil {
		return nil, err
	}

	poolScript, err := coinbase.ResolveScript(pool.PoolAddress, pool.PoolScriptHex, netParams)
	if err != nil {
		return nil, errors.Wrap(err, "resolving pool payout script")
	}

	cfg := job.Config{
		PoolDestination: poolScript,
		PlaceholderLen:  pool.ExtraNonce1Size + pool.ExtraNonce2Size,
		Network:         coin.Network,
		IsPoS:           coin.IsPoS,
		ShareMultiplier: pool.ShareMultiplier,
		CoinbaseHasher:  coinbaseHasher,
		HeaderHasher:    headerHasher,
		BlockHasher:     blockHasher,
		Resolve: func(t reward.Target) ([]byte, error) {
			return coinbase.ResolveScript(t.Payee, t.Script, netParams)
		},
	}

	return job.Init(tmpl, jobID, coin, cfg)
}

func defaultHasher(name string) string {
	if name == "" {
		return "sha256d"
	}
	return name
}

func resolveNetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, errors.Errorf("unknown network %q", network)
	}
}

// printStratumParams renders a job's mining.notify payload as JSON, for the
// "ngstratum job show" debugging command.
func printStratumParams(j *job.Job, isNew bool) {
	p := j.StratumParams(isNew)
	out, _ := json.MarshalIndent([]interface{}{
		p.JobID, p.PreviousBlockHashReversed, p.CoinbaseInitial, p.CoinbaseFinal,
		p.MerkleBranches, p.Version, p.Bits, p.CurTime, p.IsNew,
	}, "", "  ")
	fmt.Println(string(out))
}

func init() {
	var namespace string
	showCmd := &cobra.Command{
		Use:   "show [coin]",
		Short: "Fetch a fresh block template and print the resulting stratum job params",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			coinSymbol := strings.ToUpper(args[0])
			svc := service.NewService(namespace, viper.New())

			coinTmpl, ok := cointemplate.CoinTemplates[coinSymbol]
			if !ok {
				log.Crit("no coin template configured", "coin", coinSymbol)
				os.Exit(1)
			}

			pools := map[string]job.PoolRuntimeConfig{}
			if err := mapstructure.Decode(svc.Config().GetStringMap("pools"), &pools); err != nil {
				log.Crit("decoding pool runtime configs", "err", err)
				os.Exit(1)
			}
			pool, ok := pools[coinSymbol]
			if !ok {
				log.Crit("no pool runtime config for coin", "coin", coinSymbol)
				os.Exit(1)
			}

			client := rpc.New(pool.RPCURL, pool.RPCUser, pool.RPCPass)
			tmpl, err := client.GetBlockTemplate(coinTmpl.HasSegwit)
			if err != nil {
				log.Crit("fetching block template", "coin", coinSymbol, "err", err)
				os.Exit(1)
			}

			j, err := buildJob(fmt.Sprintf("%s-preview", strings.ToLower(coinSymbol)), tmpl, coinTmpl, pool)
			if err != nil {
				log.Crit("building job", "coin", coinSymbol, "err", err)
				os.Exit(1)
			}
			printStratumParams(j, true)
		},
	}
	showCmd.Flags().StringVar(&namespace, "namespace", "stratum", "etcd config namespace")

	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect stratum jobs without running the full daemon loop",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	jobCmd.AddCommand(showCmd)
	RootCmd.AddCommand(jobCmd)
}
