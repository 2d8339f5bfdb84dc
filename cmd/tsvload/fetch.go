package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tsvload/internal/datasource/httpds"
	"tsvload/internal/fetch"
)

func newFetchCmd(a *app) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the pages listed in a subject index JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc := a.cfg.Fetch
			if input != "" {
				fc.Input = input
			}
			if output != "" {
				fc.OutputDir = output
			}
			cookies, err := fc.CookieMap()
			if err != nil {
				return err
			}

			client := httpds.NewClient(httpds.Config{
				Timeout:    fc.Timeout,
				MaxRetries: fc.Retries,
				Cookies:    cookies,
			})
			d := fetch.New(client, fetch.Options{OutputDir: fc.OutputDir, Delay: fc.Delay}, a.log)
			res, err := d.RunFile(cmd.Context(), fc.Input)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d, failed %d\n", res.Saved, res.Failed)
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "index JSON (overrides fetch.input)")
	cmd.Flags().StringVar(&output, "output", "", "output directory (overrides fetch.output_dir)")
	return cmd
}
