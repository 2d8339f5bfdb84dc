package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tsvload/internal/schema"
	"tsvload/internal/storage"
)

func (a *app) openSession(cmd *cobra.Command) (storage.Session, error) {
	return storage.New(cmd.Context(), storage.Config{Kind: a.cfg.Storage.Kind, DSN: a.cfg.Storage.DSN})
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Print the ordered column list of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			t, err := schema.NewInspector(sess).Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for i, c := range t.Columns {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, c)
			}
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the IMDb tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			n, err := ensureTables(cmd, sess)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tables ready\n", n)
			return nil
		},
	}
}

func ensureTables(cmd *cobra.Command, sess storage.Session) (int, error) {
	defs := schema.IMDbTables()
	for _, def := range defs {
		if err := sess.EnsureTable(cmd.Context(), def); err != nil {
			return 0, fmt.Errorf("create table %s: %w", def.Name, err)
		}
	}
	return len(defs), nil
}
