// Copyright 2026 mvirt authors.

// mvirt-apid hosts the control plane: the Replication Engine (RE), the
// deterministic State Machine (SM) plugged into it as a raft FSM, the
// Store Facade (SF) typed API, and the Scheduler. It exposes no network
// RPC surface of its own — mvirt-ctl and mvirt-netd link internal/store
// directly as a library.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
	"github.com/MalteJ/mvirt-sub000/internal/replog"
	"github.com/MalteJ/mvirt-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mvirt-apid",
	Short: "Raft-replicated control plane for mvirt",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := minilog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		minilog.AddLogger("stderr", os.Stderr, level, true)
		return nil
	},
	RunE: runServe,
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
	rootCmd.PersistentFlags().String("node.id", "", "stable raft server id for this node (default: a random id generated at each start; it is not persisted)")
	rootCmd.PersistentFlags().String("node.bind-addr", "127.0.0.1:9001", "host:port the raft transport listens on")
	rootCmd.PersistentFlags().String("data-dir", "/var/lib/mvirt-apid", "directory for raft log, stable store, and snapshots")
	rootCmd.PersistentFlags().Bool("bootstrap", false, "bootstrap a brand-new single-node cluster (first node only)")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetConfigName("mvirt-apid")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/mvirt")

	viper.SetEnvPrefix("MVIRT_APID")
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
		minilog.Info("apid: generated node id %s", nodeID)
	}

	cfg := replog.Config{
		NodeID:    nodeID,
		BindAddr:  viper.GetString("node.bind-addr"),
		DataDir:   viper.GetString("data-dir"),
		Bootstrap: viper.GetBool("bootstrap"),
	}

	eng, err := replog.Open(cfg)
	if err != nil {
		return fmt.Errorf("apid: starting replication engine: %w", err)
	}
	defer eng.Shutdown()

	facade := store.New(eng)
	_ = facade // the facade is the library surface mvirt-ctl and mvirt-netd import directly; apid's own job ends at keeping it alive.

	minilog.Info("apid: node %s serving raft on %s, data dir %s", nodeID, cfg.BindAddr, cfg.DataDir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	<-sig

	minilog.Info("apid: shutting down")
	return nil
}

func main() {
	Execute()
}
