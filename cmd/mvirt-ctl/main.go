// Copyright 2026 mvirt authors.

// mvirt-ctl is a thin Cobra CLI exercising the Store Facade's typed
// operations, kept deliberately minimal. Since no network RPC surface
// is in scope,
// each invocation opens its own embedded replication engine against the
// configured data directory rather than talking to an already-running
// mvirt-apid over a wire protocol — fine for a single-node deployment
// or demonstration, but not a substitute for a real admin API.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MalteJ/mvirt-sub000/internal/replog"
	"github.com/MalteJ/mvirt-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "mvirt-ctl",
	Short:        "Command-line client for the mvirt control plane",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("node.id", "ctl", "raft server id to use for this invocation's embedded engine")
	rootCmd.PersistentFlags().String("node.bind-addr", "127.0.0.1:9021", "host:port the embedded raft transport listens on")
	rootCmd.PersistentFlags().String("data-dir", "/var/lib/mvirt-apid", "data directory of the single-node cluster to operate against")

	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newProjectCmd())
	rootCmd.AddCommand(newNetworkCmd())
	rootCmd.AddCommand(newNicCmd())
	rootCmd.AddCommand(newVMCmd())
	rootCmd.AddCommand(newNodeCmd())
}

func initConfig() {
	viper.SetConfigName("mvirt-ctl")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/mvirt")

	viper.SetEnvPrefix("MVIRT_CTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// openFacade stands up a Store Facade over a freshly opened embedded
// replication engine, bootstrapping a single-node cluster at data-dir if
// one isn't already present there. Callers must eventually Shutdown the
// returned engine; this process's cluster membership is its own, so
// there is nothing to coordinate with peers on exit.
func openFacade() (*store.Facade, func(), error) {
	eng, err := replog.Open(replog.Config{
		NodeID:    viper.GetString("node.id"),
		BindAddr:  viper.GetString("node.bind-addr"),
		DataDir:   viper.GetString("data-dir"),
		Bootstrap: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening control plane store at %s: %w", viper.GetString("data-dir"), err)
	}
	return store.New(eng), func() { eng.Shutdown() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
