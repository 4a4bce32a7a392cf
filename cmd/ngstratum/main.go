package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/BartManX/miningcore/pkg/cointemplate"
	"github.com/BartManX/miningcore/pkg/job"
	"github.com/BartManX/miningcore/pkg/metrics"
	"github.com/BartManX/miningcore/pkg/rpc"
	"github.com/BartManX/miningcore/pkg/service"
)

// RootCmd is the ngstratum entrypoint: the process that turns daemon block
// templates into Stratum jobs and validates submitted shares against them.
var RootCmd = &cobra.Command{
	Use:   "ngstratum",
	Short: "Per-job share validation and block assembly daemon",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// daemon owns one job.Job per configured coin and refreshes it on a timer.
// Share submissions still arrive over a Stratum transport that is out of
// this core's scope (spec §1); daemon only exposes ProcessShare for that
// transport layer to call.
type daemon struct {
	svc         *service.Service
	metricsAddr string

	mu   sync.RWMutex
	jobs map[string]*job.Job

	jobSeq int64
}

func newDaemon(svc *service.Service) *daemon {
	return &daemon{
		svc:         svc,
		metricsAddr: svc.Config().GetString("metrics_addr"),
		jobs:        map[string]*job.Job{},
	}
}

func (d *daemon) currentJob(coin string) (*job.Job, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	j, ok := d.jobs[coin]
	return j, ok
}

func (d *daemon) ProcessShare(coin string, worker *job.WorkerContext, extranonce2, nTime, nonce, versionBits string) (*job.Share, string, error) {
	j, ok := d.currentJob(coin)
	if !ok {
		return nil, "", errors.Errorf("no active job for coin %s", coin)
	}
	share, blockHex, err := j.ProcessShare(worker, extranonce2, nTime, nonce, versionBits)
	result := "other"
	switch {
	case err == nil && share.IsBlockCandidate:
		result = "block_candidate"
	case err == nil:
		result = "accepted"
	default:
		if se, ok := err.(*job.ShareError); ok {
			switch se.Kind {
			case job.ErrDuplicateShare:
				result = "duplicate"
			case job.ErrLowDifficultyShare:
				result = "low_difficulty"
			}
		}
	}
	diff := 0.0
	if share != nil {
		diff = share.Difficulty
	}
	metrics.ObserveShare(coin, result, diff)
	return share, blockHex, err
}

// refreshJob polls the daemon for a new template and rebuilds the coin's
// job. This is the one loop in the daemon that calls out to the coin's RPC
// endpoint (spec's external "daemon RPC" collaborator).
func (d *daemon) refreshJob(coin string, coinTmpl *cointemplate.CoinTemplate, pool job.PoolRuntimeConfig, client *rpc.Client) error {
	tmpl, err := client.GetBlockTemplate(coinTmpl.HasSegwit)
	if err != nil {
		return errors.Wrapf(err, "fetching block template for %s", coin)
	}
	d.mu.Lock()
	d.jobSeq++
	jobID := fmt.Sprintf("%s-%d", coin, d.jobSeq)
	d.mu.Unlock()

	j, err := buildJob(jobID, tmpl, coinTmpl, pool)
	if err != nil {
		return errors.Wrapf(err, "building job for %s", coin)
	}
	d.mu.Lock()
	d.jobs[coin] = j
	d.mu.Unlock()
	metrics.ObserveJobBuilt(coin)
	log.Info("built new job", "coin", coin, "job_id", jobID, "height", j.BlockHeight())
	return nil
}

func (d *daemon) Run(stop <-chan struct{}) error {
	var g errgroup.Group

	if d.metricsAddr != "" {
		srv := &http.Server{Addr: d.metricsAddr, Handler: metrics.Handler()}
		g.Go(func() error {
			log.Info("serving metrics", "addr", d.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		go func() {
			<-stop
			srv.Close()
		}()
	}

	pools := map[string]job.PoolRuntimeConfig{}
	if err := mapstructure.Decode(d.svc.Config().GetStringMap("pools"), &pools); err != nil {
		return errors.Wrap(err, "decoding pool runtime configs")
	}

	for coin, coinTmpl := range cointemplate.CoinTemplates {
		coin, coinTmpl := coin, coinTmpl
		pool, ok := pools[coin]
		if !ok {
			log.Warn("no pool runtime config for coin, skipping", "coin", coin)
			continue
		}
		client := rpc.New(pool.RPCURL, pool.RPCUser, pool.RPCPass)
		g.Go(func() error {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			if err := d.refreshJob(coin, coinTmpl, pool, client); err != nil {
				log.Error("initial job build failed", "coin", coin, "err", err)
			}
			for {
				select {
				case <-stop:
					return nil
				case <-ticker.C:
					if err := d.refreshJob(coin, coinTmpl, pool, client); err != nil {
						log.Error("refreshing job failed", "coin", coin, "err", err)
					}
				}
			}
		})
	}

	return g.Wait()
}

func init() {
	var namespace string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the stratum job daemon",
		Run: func(cmd *cobra.Command, args []string) {
			svc := service.NewService(namespace, viper.New())
			d := newDaemon(svc)

			stop := make(chan struct{})
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs
				close(stop)
			}()

			if err := d.Run(stop); err != nil {
				log.Crit("daemon exited with error", "err", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().StringVar(&namespace, "namespace", "stratum", "etcd config namespace")
	RootCmd.AddCommand(serveCmd)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
