// Copyright 2026 mvirt authors.

// mvirt-netd hosts the dataplane: the Worker Manager (WM), one
// Per-Network Router (PNR) per live network, one vNIC Worker (VW) per
// live NIC with its Protocol Handlers (PH), and the shared TUN I/O
// (TIO) singleton. It reconciles its live routers/workers against the
// control plane's Store Facade read API by embedding its own
// replication engine instance — the Store Facade is a Go library, not
// a network service, in this architecture.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/tun"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/worker"
	"github.com/MalteJ/mvirt-sub000/internal/minilog"
	"github.com/MalteJ/mvirt-sub000/internal/replog"
	"github.com/MalteJ/mvirt-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mvirt-netd",
	Short: "Per-vNIC user-space dataplane for mvirt",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := minilog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		minilog.AddLogger("stderr", os.Stderr, level, true)
		return nil
	},
	RunE:         runServe,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log.level", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("node.id", "", "stable raft server id for this node (default: generated)")
	rootCmd.PersistentFlags().String("node.bind-addr", "127.0.0.1:9011", "host:port the raft transport listens on")
	rootCmd.PersistentFlags().String("data-dir", "/var/lib/mvirt-netd", "directory for raft log, stable store, and snapshots")
	rootCmd.PersistentFlags().Bool("bootstrap", true, "bootstrap a brand-new single-node cluster")
	rootCmd.PersistentFlags().String("tun.name", "mvirt0", "name of the process-wide L3 TUN device")
	rootCmd.PersistentFlags().String("socket-dir", "/var/run/mvirt-netd", "directory vNIC vhost-user sockets are created under, one per NIC id")
	rootCmd.PersistentFlags().Int("buffer.pool-size", 4096, "number of packet buffers preallocated in the shared arena")
	rootCmd.PersistentFlags().Duration("reconcile.interval", 2*time.Second, "how often to diff live state against the control plane")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetConfigName("mvirt-netd")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/mvirt")

	viper.SetEnvPrefix("MVIRT_NETD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	nodeID := viper.GetString("node.id")
	if nodeID == "" {
		nodeID = replog.NewNodeID()
		minilog.Info("netd: generated node id %s", nodeID)
	}

	eng, err := replog.Open(replog.Config{
		NodeID:    nodeID,
		BindAddr:  viper.GetString("node.bind-addr"),
		DataDir:   viper.GetString("data-dir"),
		Bootstrap: viper.GetBool("bootstrap"),
	})
	if err != nil {
		return fmt.Errorf("netd: starting replication engine: %w", err)
	}
	defer eng.Shutdown()

	facade := store.New(eng)

	dev, err := tun.Open(viper.GetString("tun.name"))
	if err != nil {
		return fmt.Errorf("netd: opening tun device: %w", err)
	}
	defer dev.Close()

	routeRecon := tun.NewReconciler(dev.Name())

	pool := buffer.NewPool(viper.GetInt("buffer.pool-size"))
	tunTX := make(chan *buffer.Buffer, 1024)

	mgr := worker.NewManager(pool, tunTX)

	recon := &reconciler{
		facade:    facade,
		mgr:       mgr,
		socketDir: viper.GetString("socket-dir"),
		networks:  make(map[string]networkSnapshot),
		nics:      make(map[string]string),
	}

	if err := os.MkdirAll(recon.socketDir, 0o755); err != nil {
		return fmt.Errorf("netd: creating socket dir: %w", err)
	}

	io := &tunIO{dev: dev, pool: pool, mgr: mgr, tunTX: tunTX}
	go io.egressLoop()
	go io.ingressLoop()

	interval := viper.GetDuration("reconcile.interval")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)

	recon.reconcile()
	minilog.Info("netd: node %s serving tun %s, socket dir %s", nodeID, dev.Name(), recon.socketDir)

	for {
		select {
		case <-sig:
			minilog.Info("netd: shutting down")
			mgr.StopAll()
			return nil
		case <-ticker.C:
			recon.reconcile()
			if err := routeRecon.Reconcile(recon.publicPrefixes()); err != nil {
				minilog.Warn("netd: route reconciliation: %v", err)
			}
		}
	}
}

func main() {
	Execute()
}
