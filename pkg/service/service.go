// Package service is the etcd-backed configuration layer shared by the
// stratum daemon and the ngctl CLI: it pulls a service's own config from
// etcd and merges the pool-wide common config on top. Coin-specific
// decoding lives in pkg/cointemplate; this package only owns the
// etcd/viper plumbing, the way the teacher's Service type does for
// coinserver/stratum config loading.
package service

import (
	"context"
	"strings"

	"github.com/coreos/etcd/client"
	log "github.com/inconshreveable/log15"
	"github.com/spf13/viper"
	"time"

	"github.com/BartManX/miningcore/pkg/cointemplate"
)

type Service struct {
	config    *viper.Viper
	serviceID string
	namespace string
	etcd      client.Client
	etcdKeys  client.KeysAPI
}

func NewService(namespace string, config *viper.Viper) *Service {
	s := &Service{
		namespace: namespace,
		config:    config,
	}
	s.SetServiceID(s.config.GetString("ServiceID"))
	s.config.SetDefault("EtcdEndpoint", []string{"http://127.0.0.1:2379", "http://127.0.0.1:4001"})

	log.Info("Loaded service, pulling config from etcd", "service", s.serviceID)
	s.config.SetConfigType("yaml")

	keyPath := "/config/" + s.namespace + "/" + s.serviceID
	s.config.AddRemoteProvider("etcd", s.config.GetStringSlice("EtcdEndpoint")[0], keyPath)
	err := s.config.ReadRemoteConfig()
	if err != nil {
		log.Warn("Unable to load from etcd", "err", err, "keypath", keyPath)
	}

	cfg := client.Config{
		Endpoints: s.config.GetStringSlice("EtcdEndpoint"),
		Transport: client.DefaultTransport,
		// set timeout per request to fail fast when the target endpoint is unavailable
		HeaderTimeoutPerRequest: time.Second,
	}
	etcd, err := client.New(cfg)
	if err != nil {
		log.Crit("Failed to make etcd client", "err", err)
	}
	s.etcd = etcd
	s.etcdKeys = client.NewKeysAPI(s.etcd)

	res, err := s.etcdKeys.Get(context.Background(), "/config/common", nil)
	if err != nil {
		log.Crit("Unable to contact etcd", "err", err)
	}
	s.config.MergeConfig(strings.NewReader(res.Node.Value))

	if err := cointemplate.SetupCoinTemplates(s.config.GetStringMap("coins")); err != nil {
		log.Crit("Failed decoding coin templates", "err", err)
	}
	return s
}

// Config exposes the merged viper config to callers that need more than the
// fields Service already parsed (per-coin daemon RPC credentials, pool
// destination addresses).
func (s *Service) Config() *viper.Viper { return s.config }

// EtcdKeys exposes the raw etcd keys API for callers (ngctl) managing
// config documents directly.
func (s *Service) EtcdKeys() client.KeysAPI { return s.etcdKeys }

// ServiceID returns the service's own identifier within its namespace.
func (s *Service) ServiceID() string { return s.serviceID }

// SetServiceID changes the service's own identifier within its namespace.
func (s *Service) SetServiceID(id string) {
	s.serviceID = id
}
