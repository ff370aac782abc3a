// Copyright 2026 mvirt authors.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MalteJ/mvirt-sub000/internal/state"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Node management",
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	cmd.AddCommand(newNodeListCmd())
	cmd.AddCommand(newNodeRegisterCmd())
	return cmd
}

func newNodeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tSTATUS\tCPU\tFREE CPU\tMEMORY\tFREE MEMORY")
			for _, n := range f.Nodes.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					n.ID, n.Name, n.Address, n.Status,
					n.Resources.CPU, n.Resources.FreeCPU, n.Resources.MemoryMB, n.Resources.FreeMemory)
			}
			return w.Flush()
		},
	}
}

func newNodeRegisterCmd() *cobra.Command {
	var (
		id, name, address string
		cpu, freeCPU      int
		memoryMB          int64
		freeMemory        int64
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			if id == "" {
				id = uuid.NewString()
			}

			resources := state.NodeResources{CPU: cpu, FreeCPU: freeCPU, MemoryMB: memoryMB, FreeMemory: freeMemory}
			n, err := f.Nodes.Register(id, name, address, resources, nil)
			if err != nil {
				return err
			}
			fmt.Println(n.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "stable node id (default: generated)")
	cmd.Flags().StringVar(&name, "name", "", "node name")
	cmd.Flags().StringVar(&address, "address", "", "reachable address")
	cmd.Flags().IntVar(&cpu, "cpu", 0, "total CPU units")
	cmd.Flags().IntVar(&freeCPU, "free-cpu", 0, "free CPU units")
	cmd.Flags().Int64Var(&memoryMB, "memory-mb", 0, "total memory in MiB")
	cmd.Flags().Int64Var(&freeMemory, "free-memory-mb", 0, "free memory in MiB")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("address")
	return cmd
}
