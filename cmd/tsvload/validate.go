package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsvload/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and report errors and warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			issues := config.Validate(a.cfg)
			for _, iss := range issues {
				paint := color.YellowString
				if iss.Severity == config.SeverityError {
					paint = color.RedString
				}
				fmt.Fprintf(out, "%s %s: %s\n", paint("%-7s", iss.Severity), iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("configuration is invalid")
			}
			fmt.Fprintln(out, color.GreenString("configuration is valid"))
			return nil
		},
	}
}
