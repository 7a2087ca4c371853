package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func newGenerateCmd(configPath *string) *cobra.Command {
	var groupID, caller string

	cmd := &cobra.Command{
		Use:   "generate <title>",
		Short: "Run one cover request through the pipeline and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, _, err := a.controller(nil)
			if err != nil {
				return err
			}

			resp, err := ctrl.Handle(context.Background(), models.GenerationRequest{
				SubjectText: args[0],
				GroupID:     groupID,
				CallerName:  caller,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "group ID")
	cmd.Flags().StringVar(&caller, "caller", "", "caller display name")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}
