package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/coreos/etcd/client"
	"github.com/fatih/color"
	log "github.com/inconshreveable/log15"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/BartManX/miningcore/pkg/cointemplate"
	"github.com/BartManX/miningcore/pkg/job"
)

func init() {
	commonCmd := &cobra.Command{
		Use: "common",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	commonCmd.AddCommand(&cobra.Command{
		Use: "dump",
		Run: func(cmd *cobra.Command, args []string) {
			etcdKeys := getEtcdKeys()
			fmt.Print(getKey(etcdKeys, "/config/common"))
		},
	})
	commonCmd.AddCommand(&cobra.Command{
		Use: "edit",
		Run: func(cmd *cobra.Command, args []string) {
			etcdKeys := getEtcdKeys()
			editKey(etcdKeys, "/config/common")
		},
	})

	coinCmd := &cobra.Command{
		Use: "coin",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	setupConfigCommands(coinCmd, "coin")

	poolCmd := &cobra.Command{
		Use: "pool",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	setupConfigCommands(poolCmd, "pool")

	RootCmd.AddCommand(commonCmd)
	RootCmd.AddCommand(poolCmd)
	RootCmd.AddCommand(coinCmd)
}

// validateConfig decodes a config document's YAML into the struct its
// serviceType ("coin" or "pool") is actually consumed as, rejecting pushes
// that don't parse into a usable CoinTemplate or PoolRuntimeConfig instead
// of letting operators push arbitrary YAML the daemon only discovers is
// broken once it tries to decode it at startup.
func validateConfig(serviceType, content string) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	switch serviceType {
	case "coin":
		var coin cointemplate.CoinTemplate
		if err := mapstructure.Decode(raw, &coin); err != nil {
			return fmt.Errorf("decoding coin template: %w", err)
		}
		if coin.Symbol == "" {
			return fmt.Errorf("coin template missing required field %q", "symbol")
		}
		log.Info("validated coin template", "symbol", coin.Symbol, "network", coin.Network)
	case "pool":
		var pool job.PoolRuntimeConfig
		if err := mapstructure.Decode(raw, &pool); err != nil {
			return fmt.Errorf("decoding pool runtime config: %w", err)
		}
		if pool.RPCURL == "" {
			return fmt.Errorf("pool config missing required field %q", "rpc_url")
		}
		log.Info("validated pool config", "rpc_url", pool.RPCURL, "extranonce1_size", pool.ExtraNonce1Size)
	}
	return nil
}

func setupConfigCommands(cmd *cobra.Command, serviceType string) {
	var lsCmd = &cobra.Command{
		Use:   "ls",
		Short: "Lists all service configs",
		Run: func(cmd *cobra.Command, args []string) {
			log.Info(serviceType)
			etcdKeys := getEtcdKeys()
			getOpt := &client.GetOptions{
				Recursive: true,
			}
			res, err := etcdKeys.Get(context.Background(), "/config/"+serviceType, getOpt)
			if err != nil {
				log.Crit("Unable to contact etcd", "err", err)
				os.Exit(1)
			}
			for _, node := range res.Node.Nodes {
				lbi := strings.LastIndexByte(node.Key, '/') + 1
				serviceID := node.Key[lbi:]
				color.Green("export SERVICEID=%s", serviceID)
				fmt.Println(node.Value)
				fmt.Println()
			}
		}}

	var newCmd = &cobra.Command{
		Use:   "new [name]",
		Short: "Creates a new service configuration",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name := args[0]
			keyPath := "/config/" + serviceType + "/" + name

			etcdKeys := getEtcdKeys()
			def := getDefaultConfig(serviceType)
			newConfig, save := modifyLoop(def, keyPath)
			if !save {
				return
			}
			if err := validateConfig(serviceType, newConfig); err != nil {
				log.Crit("Refusing to push invalid config", "err", err, "keypath", keyPath)
				os.Exit(1)
			}
			_, err := etcdKeys.Set(
				context.Background(), keyPath, newConfig, nil)
			if err != nil {
				log.Crit("Failed pushing config", "err", err)
				os.Exit(1)
			}
			log.Info("Successfully pushed config", "keypath", keyPath)
		}}

	var editCmd = &cobra.Command{
		Use:   "edit [name]",
		Short: "Opens the config in an editor",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			etcdKeys := getEtcdKeys()
			name := args[0]
			configKeyPath := "/config/" + serviceType + "/" + name

			current := getKey(etcdKeys, configKeyPath)
			updated, save := modifyLoop(current, configKeyPath)
			if !save {
				return
			}
			if err := validateConfig(serviceType, updated); err != nil {
				log.Crit("Refusing to push invalid config", "err", err, "keypath", configKeyPath)
				os.Exit(1)
			}
			writeKey(etcdKeys, configKeyPath, updated)
			log.Info("Successfully pushed config", "keypath", configKeyPath)
		}}

	var cloneCmd = &cobra.Command{
		Use:   "clone [source] [new]",
		Short: "Creates a new service config from previous",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			etcdKeys := getEtcdKeys()
			configKeyPath := "/config/" + serviceType + "/" + args[0]
			values := getKey(etcdKeys, configKeyPath)

			keyPath := "/config/" + serviceType + "/" + args[1]
			newConfig, save := modifyLoop(values, keyPath)
			if !save {
				return
			}
			if err := validateConfig(serviceType, newConfig); err != nil {
				log.Crit("Refusing to push invalid config", "err", err, "keypath", keyPath)
				os.Exit(1)
			}
			_, err := etcdKeys.Set(
				context.Background(), keyPath, newConfig, nil)
			if err != nil {
				log.Crit("Failed pushing config", "err", err)
				os.Exit(1)
			}
			log.Info("Successfully pushed config", "keypath", keyPath)
		}}

	var rmCmd = &cobra.Command{
		Use:   "rm [name]",
		Short: "Remove a service configuration",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			etcdKeys := getEtcdKeys()
			name := args[0]
			configKeyPath := "/config/" + serviceType + "/" + name
			rmKey(etcdKeys, configKeyPath)
		}}

	var mvCmd = &cobra.Command{
		Use:   "mv [name] [new_name]",
		Short: "Change service name of a configuration",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			etcdKeys := getEtcdKeys()
			name := args[0]
			newName := args[1]
			configKeyPath := "/config/" + serviceType + "/" + name
			newConfigKeyPath := "/config/" + serviceType + "/" + newName
			values := getKey(etcdKeys, configKeyPath)
			writeKey(etcdKeys, newConfigKeyPath, values)
			rmKey(etcdKeys, configKeyPath)
		}}

	cmd.AddCommand(newCmd, rmCmd, lsCmd, mvCmd, editCmd, cloneCmd)
}
