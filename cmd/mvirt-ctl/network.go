// Copyright 2026 mvirt authors.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MalteJ/mvirt-sub000/internal/store"
)

func newNetworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "network",
		Aliases: []string{"net"},
		Short:   "Network management",
		RunE:    func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	cmd.AddCommand(newNetworkListCmd())
	cmd.AddCommand(newNetworkCreateCmd())
	cmd.AddCommand(newNetworkDeleteCmd())
	return cmd
}

func newNetworkListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			nets := f.Networks.List()
			if projectID != "" {
				nets = f.Networks.ListByProject(projectID)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPROJECT\tIPV4\tIPV6\tPUBLIC\tNICS")
			for _, n := range nets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%d\n",
					n.ID, n.Name, n.ProjectID, n.IPv4Prefix, n.IPv6Prefix, n.IsPublic, n.NicCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "restrict the listing to one project")
	return cmd
}

func newNetworkCreateCmd() *cobra.Command {
	var req store.CreateNetworkRequest
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			req.Name = args[0]
			n, err := f.Networks.Create(req)
			if err != nil {
				return err
			}
			fmt.Println(n.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ProjectID, "project", "", "owning project id")
	cmd.Flags().BoolVar(&req.IPv4Enabled, "ipv4", false, "enable IPv4 on this network")
	cmd.Flags().StringVar(&req.IPv4Prefix, "ipv4-prefix", "", "IPv4 CIDR prefix")
	cmd.Flags().BoolVar(&req.IPv6Enabled, "ipv6", false, "enable IPv6 on this network")
	cmd.Flags().StringVar(&req.IPv6Prefix, "ipv6-prefix", "", "IPv6 CIDR prefix")
	cmd.Flags().StringSliceVar(&req.DNSServers, "dns", nil, "DNS server addresses")
	cmd.Flags().StringSliceVar(&req.NTPServers, "ntp", nil, "NTP server addresses")
	cmd.Flags().BoolVar(&req.IsPublic, "public", false, "route unmatched traffic to the shared TUN uplink")
	return cmd
}

func newNetworkDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := f.Networks.Delete(args[0], force)
			if err != nil {
				return err
			}
			fmt.Printf("deleted, %d nic(s) removed\n", res.NicsDeleted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete even if NICs are still attached")
	return cmd
}
