// Copyright 2026 mvirt authors.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MalteJ/mvirt-sub000/internal/scheduler"
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

func newVMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vm",
		Short: "Virtual machine management",
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	cmd.AddCommand(newVMListCmd())
	cmd.AddCommand(newVMCreateCmd())
	cmd.AddCommand(newVMDeleteCmd())
	return cmd
}

func newVMListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List VMs",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tNIC\tCPU\tMEMORY\tPHASE\tNODE")
			for _, vm := range f.VMs.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					vm.ID, vm.Spec.Name, vm.Spec.NicID, vm.Spec.CPU, vm.Spec.MemoryMB, vm.Status.Phase, vm.Status.NodeID)
			}
			return w.Flush()
		},
	}
}

func newVMCreateCmd() *cobra.Command {
	var (
		spec     state.VMSpec
		schedule bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a VM, optionally scheduling it onto a node immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			spec.Name = args[0]

			var vm state.VM
			if schedule {
				vm, err = f.VMs.CreateAndSchedule(spec, scheduler.New())
			} else {
				vm, err = f.VMs.Create(spec)
			}
			if err != nil {
				return err
			}
			fmt.Println(vm.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec.NicID, "nic", "", "NIC id this VM's primary interface attaches to")
	cmd.Flags().IntVar(&spec.CPU, "cpu", 1, "CPU units")
	cmd.Flags().Int64Var(&spec.MemoryMB, "memory-mb", 512, "memory in MiB")
	cmd.Flags().StringVar(&spec.DesiredState, "desired-state", "", "desired lifecycle state")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "immediately schedule the VM onto a node")
	return cmd
}

func newVMDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a VM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			return f.VMs.Delete(args[0])
		},
	}
}
