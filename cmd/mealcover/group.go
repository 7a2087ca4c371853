package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func newGroupCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Administer group rosters",
	}

	addCmd := &cobra.Command{
		Use:   "add <group-id> <display-name>",
		Short: "Add a member to a group, creating the group if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.openRoster()
			if err != nil {
				return err
			}
			if err := r.AddMember(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Added %q to %s.\n", args[1], args[0])
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <group-id> <display-name>",
		Short: "Remove a member from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.openRoster()
			if err != nil {
				return err
			}
			if err := r.RemoveMember(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed %q from %s.\n", args[1], args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List groups and their members",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.openRoster()
			if err != nil {
				return err
			}
			groups, err := r.Groups(context.Background())
			if err != nil {
				return err
			}
			return writeGroups(os.Stdout, groups)
		},
	}

	cmd.AddCommand(addCmd, removeCmd, listCmd)
	return cmd
}

func writeGroups(out io.Writer, groups []models.Group) error {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No groups found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tMEMBERS")
	for _, g := range groups {
		names := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			names = append(names, m.DisplayName)
		}
		fmt.Fprintf(w, "%s\t%s\n", g.ID, strings.Join(names, ", "))
	}
	return w.Flush()
}
