// Copyright 2026 mvirt authors.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management",
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tCREATED")
			for _, p := range f.Projects.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Description, p.CreatedAt)
			}
			return w.Flush()
		},
	}
}

func newProjectCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := f.Projects.Create(args[0], description)
			if err != nil {
				return err
			}
			fmt.Println(p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "project description")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFn, err := openFacade()
			if err != nil {
				return err
			}
			defer closeFn()

			return f.Projects.Delete(args[0])
		},
	}
}
