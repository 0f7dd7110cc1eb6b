package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/codacy-standards-report/internal/aggregator"
	"github.com/kurihiro0119/codacy-standards-report/internal/api"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	"github.com/kurihiro0119/codacy-standards-report/pkg/client"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded report runs",
	Long: `List the report runs recorded with --record for an organization, newest first.

Runs are read from the local history store, or from the history API
(API_ENDPOINT) with --remote.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a recorded run",
	Long:  `Display a recorded run with the outcome of every repository it visited.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := requireOrganization(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var runs []*domain.ReportRun

	if historyRemote {
		runs, err = client.NewClient(cfg.APIEndpoint).ListRuns(ctx, organization, historyLimit)
	} else {
		if err := cfg.ValidateStorage(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		store, serr := getStorage(cfg)
		if serr != nil {
			return fmt.Errorf("failed to initialize storage: %w", serr)
		}
		defer store.Close()
		runs, err = store.ListRuns(ctx, organization, historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No recorded runs for organization: %s\n", organization)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Run ID", "Kind", "Quick", "Status", "Started", "Standards", "Repositories", "Rows", "Errors", "File"})
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			string(r.Kind),
			strconv.FormatBool(r.Quick),
			string(r.Status),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", r.Standards),
			fmt.Sprintf("%d", r.Repositories),
			fmt.Sprintf("%d", r.Rows),
			fmt.Sprintf("%d", r.ErrorRows),
			r.File,
		})
	}
	table.Render()

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var detail *api.RunDetail

	if historyRemote {
		detail, err = client.NewClient(cfg.APIEndpoint).GetRun(ctx, id)
	} else {
		if err := cfg.ValidateStorage(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		store, serr := getStorage(cfg)
		if serr != nil {
			return fmt.Errorf("failed to initialize storage: %w", serr)
		}
		defer store.Close()

		detail = &api.RunDetail{}
		detail.Run, err = store.GetRun(ctx, id)
		if err == nil {
			detail.Outcomes, err = store.GetOutcomes(ctx, id)
			detail.Totals = aggregator.SummarizeOutcomes(detail.Outcomes)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	run := detail.Run
	fmt.Printf("Run %s: %s report for %s/%s (%s)\n", run.ID, run.Kind, run.Provider, run.Organization, run.Status)
	if run.File != "" {
		fmt.Printf("File: %s\n", run.File)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Coding Standard", "Repository", "Status", "Issues", "Message"})
	for _, o := range detail.Outcomes {
		table.Append([]string{
			o.Standard,
			o.Repository,
			string(o.Status),
			fmt.Sprintf("%d", o.TotalIssues),
			o.Message,
		})
	}
	table.SetFooter([]string{
		"Total",
		fmt.Sprintf("%d", detail.Totals.Repositories),
		fmt.Sprintf("%d errors", detail.Totals.Errors),
		fmt.Sprintf("%d", detail.Totals.Issues),
		"",
	})
	table.Render()

	return nil
}
