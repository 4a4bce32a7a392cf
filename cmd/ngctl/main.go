package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"

	"github.com/coreos/etcd/client"
	"github.com/fatih/color"
	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

// RootCmd is the ngctl entrypoint: an operator CLI for the coin templates
// and pool configs a running stratum daemon pulls from etcd.
var RootCmd = &cobra.Command{
	Use:   "ngctl",
	Short: "Manage mining pool coin and pool configuration in etcd",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func etcdEndpoints() []string {
	if e := os.Getenv("ETCD_ENDPOINT"); e != "" {
		return []string{e}
	}
	return []string{"http://127.0.0.1:2379"}
}

func getEtcdKeys() client.KeysAPI {
	cfg := client.Config{
		Endpoints: etcdEndpoints(),
		Transport: client.DefaultTransport,
	}
	c, err := client.New(cfg)
	if err != nil {
		log.Crit("Failed to make etcd client", "err", err)
		os.Exit(1)
	}
	return client.NewKeysAPI(c)
}

func getKey(keys client.KeysAPI, path string) string {
	res, err := keys.Get(context.Background(), path, nil)
	if err != nil {
		log.Crit("Unable to read key", "path", path, "err", err)
		os.Exit(1)
	}
	return res.Node.Value
}

func writeKey(keys client.KeysAPI, path, value string) {
	_, err := keys.Set(context.Background(), path, value, nil)
	if err != nil {
		log.Crit("Failed writing key", "path", path, "err", err)
		os.Exit(1)
	}
}

func rmKey(keys client.KeysAPI, path string) {
	_, err := keys.Delete(context.Background(), path, nil)
	if err != nil {
		log.Crit("Failed removing key", "path", path, "err", err)
		os.Exit(1)
	}
	color.Red("removed %s", path)
}

func editKey(keys client.KeysAPI, path string) {
	current := getKey(keys, path)
	updated, save := modifyLoop(current, path)
	if !save {
		return
	}
	writeKey(keys, path, updated)
	log.Info("Successfully pushed config", "keypath", path)
}

// modifyLoop opens content in $EDITOR (falling back to vi), returning the
// file's text after the editor exits and true, or "" and false when the
// editor exits with an error. It does not check whether the file was saved.
func modifyLoop(content, label string) (string, bool) {
	tmp, err := ioutil.TempFile("", "ngctl-*.yaml")
	if err != nil {
		log.Crit("Failed creating temp file", "err", err)
		os.Exit(1)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		log.Crit("Failed writing temp file", "err", err)
		os.Exit(1)
	}
	tmp.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, tmp.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		log.Warn("Editor exited with error, discarding", "err", err, "keypath", label)
		return "", false
	}

	edited, err := ioutil.ReadFile(tmp.Name())
	if err != nil {
		log.Crit("Failed reading edited file", "err", err)
		os.Exit(1)
	}
	return string(edited), true
}

// getDefaultConfig returns the scaffold an operator starts a new config
// document from, per serviceType ("coin" or "pool").
func getDefaultConfig(serviceType string) string {
	switch serviceType {
	case "coin":
		return "symbol: \"\"\ncoinbase_tx_version: 1\ndiff1: \"\"\nnetwork: mainnet\nhas_payee: false\nhas_masternode: false\n"
	case "pool":
		return "rpc_url: \"\"\nrpc_user: \"\"\nrpc_pass: \"\"\npool_address: \"\"\nextranonce1_size: 4\nextranonce2_size: 4\nshare_multiplier: 1.0\n"
	default:
		return ""
	}
}
