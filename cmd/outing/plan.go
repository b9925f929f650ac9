package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/outing"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func planCMD(cfgPath *string) *cobra.Command {
	var (
		dest   outing.Destination
		date   string
		user   string
		output string
	)
	plan := &cobra.Command{
		Use:   "plan <prompt>",
		Short: "Plan one outing and print the aggregated result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q: use json or yaml", output)
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Orchestrator.RunPlan(ctx, orchestrator.Request{
				Prompt:      strings.Join(args, " "),
				Destination: &dest,
				EventDate:   date,
				UserID:      user,
			})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp, output)
		},
	}
	plan.Flags().StringVar(&dest.Country, "country", "", "destination country")
	plan.Flags().StringVar(&dest.State, "state", "", "destination state or region")
	plan.Flags().StringVar(&dest.City, "city", "", "destination city")
	plan.Flags().StringVar(&date, "date", "", "event date (YYYY-MM-DD)")
	plan.Flags().StringVar(&user, "user", "", "user the plan is saved for")
	plan.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return plan
}

// render writes resp as indented JSON or as YAML carrying the same keys.
func render(w io.Writer, resp *orchestrator.Response, format string) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	if format == "json" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
