package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gosuda/qbsync/internal/domain"
	"github.com/gosuda/qbsync/internal/manifest"
)

func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect job manifests",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "check <path>",
			Short: "Validate a manifest and print its jobs in queue order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := manifest.NewFileSource(args[0]).Load(cmd.Context())
				if err != nil {
					return err
				}
				return printQueue(cmd, b)
			},
		},
		&cobra.Command{
			Use:   "sample",
			Short: "Print the built-in sample data as a manifest",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return manifest.Encode(cmd.OutOrStdout(), manifest.Sample())
			},
		},
	)

	return cmd
}

func printQueue(cmd *cobra.Command, b domain.Batches) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "customers: %d\nemployees: %d\ninvoices: %d\njournal entries: %d\n",
		len(b.Customers), len(b.Employees), len(b.Invoices), len(b.JournalEntries)); err != nil {
		return err
	}
	for i, job := range b.Jobs() {
		if _, err := fmt.Fprintf(out, "%3d  %s\n", i+1, job.RequestID()); err != nil {
			return err
		}
	}
	return nil
}
