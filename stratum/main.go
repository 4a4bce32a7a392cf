package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/BartManX/miningcore/pkg/service"
)

// RootCmd is the ngstratum config sidekick: pushes and inspects the etcd
// config document a running ngstratum serve process reads on startup.
var RootCmd = &cobra.Command{
	Use:   "ngconfig",
	Short: "A ngstratum config sidekick",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	var fileName string
	loadconfigCmd := &cobra.Command{
		Use:   "pushconfig",
		Short: "Loads a config file and pushes it to etcd",
		Run: func(cmd *cobra.Command, args []string) {
			fileInput, err := ioutil.ReadFile(fileName)
			if err != nil {
				log.WithError(err).Fatal("Failed reading config file")
			}
			svc := service.NewService("stratum", viper.New())
			serviceID := svc.ServiceID()
			if serviceID == "" {
				log.Fatal("Cannot push config to etcd without a ServiceID (hint: export SERVICEID=veryuniquestring")
			}
			_, err = svc.EtcdKeys().Set(
				context.Background(), "/config/stratum/"+serviceID, string(fileInput), nil)
			if err != nil {
				log.WithError(err).Fatal("Failed pushing config")
			}
			log.Infof("Successfully pushed '%s' to /config/stratum/%s", fileName, serviceID)
		}}
	loadconfigCmd.Flags().StringVarP(&fileName, "config", "c", "", "the config to load")

	dumpconfigCmd := &cobra.Command{
		Use:   "dumpconfig",
		Short: "Loads the merged config and displays it",
		Run: func(cmd *cobra.Command, args []string) {
			svc := service.NewService("stratum", viper.New())
			b, err := yaml.Marshal(svc.Config().AllSettings())
			if err != nil {
				fmt.Println("error:", err)
				return
			}
			fmt.Println(string(b))
		}}

	RootCmd.AddCommand(dumpconfigCmd)
	RootCmd.AddCommand(loadconfigCmd)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
