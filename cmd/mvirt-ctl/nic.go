// Copyright 2026 mvirt authors.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MalteJ/mvirt-sub000/internal/store"
)

func newNicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nic",
		Short: "NIC management",
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	cmd.AddCommand(newNicListCmd())
	cmd.AddCommand(newNicCreateCmd())
	cmd.AddCommand(newNicDeleteCmd())
	return cmd
}

func newNicListCmd() *cobra.Command {
	var networkID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List NICs",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNETWORK\tMAC\tIPV4\tIPV6\tVM\tSTATE")
			for _, nic := range f.Nics.List(networkID) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					nic.ID, nic.NetworkID, nic.MACAddress, nic.IPv4Address, nic.IPv6Address, nic.VMID, nic.State)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&networkID, "network", "", "restrict the listing to one network")
	return cmd
}

func newNicCreateCmd() *cobra.Command {
	var req store.CreateNicRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a NIC",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			nic, err := f.Nics.Create(req)
			if err != nil {
				return err
			}
			fmt.Println(nic.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ProjectID, "project", "", "owning project id")
	cmd.Flags().StringVar(&req.NetworkID, "network", "", "network id this NIC joins")
	cmd.Flags().StringVar(&req.Name, "name", "", "NIC name")
	cmd.Flags().StringVar(&req.MACAddress, "mac", "", "MAC address (default: derived from the NIC id)")
	cmd.Flags().StringVar(&req.IPv4Address, "ipv4", "", "IPv4 address")
	cmd.Flags().StringVar(&req.IPv6Address, "ipv6", "", "IPv6 address")
	cmd.Flags().StringSliceVar(&req.RoutedIPv4Prefixes, "routed-ipv4", nil, "additional IPv4 prefixes routed to this NIC")
	cmd.Flags().StringSliceVar(&req.RoutedIPv6Prefixes, "routed-ipv6", nil, "additional IPv6 prefixes routed to this NIC")
	cmd.Flags().StringVar(&req.SecurityGroupID, "security-group", "", "security group id")
	cmd.MarkFlagRequired("network")
	return cmd
}

func newNicDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a NIC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			return f.Nics.Delete(args[0])
		},
	}
}
