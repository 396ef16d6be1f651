package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/targets"
)

func newTargetCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage the target registry in DATABASE_URL",
	}
	cmd.AddCommand(newTargetAddCmd(g))
	cmd.AddCommand(newTargetListCmd(g))
	cmd.AddCommand(newTargetRemoveCmd(g))
	return cmd
}

func newTargetAddCmd(g *globalFlags) *cobra.Command {
	var (
		id       string
		url      string
		password string
		label    string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Register a course (replaces an existing entry with the same id)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, g)
			if err != nil {
				return err
			}
			t, err := course.NewTarget(id, url, password)
			if err != nil {
				return err
			}
			t.Label = label

			ctx := contextOf(cmd)
			d, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := targets.NewRepo(d).Save(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", t)
			return nil
		},
	}

	c.Flags().StringVar(&id, "course", "", "course id")
	c.Flags().StringVar(&url, "url", "", "listing page the course appears on")
	c.Flags().StringVar(&password, "course-password", "", "password the course asks for, if any")
	c.Flags().StringVar(&label, "label", "", "free text shown in listings")
	_ = c.MarkFlagRequired("course")
	_ = c.MarkFlagRequired("url")
	return c
}

func newTargetListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, g)
			if err != nil {
				return err
			}
			ctx := contextOf(cmd)
			d, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			entries, err := targets.NewRepo(d).List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tPASSWORD\tADDED\tURL")
			for _, e := range entries {
				pw := "-"
				if e.Password != "" {
					pw = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Label, pw, e.CreatedAt.Format(time.DateTime), e.URL)
			}
			return w.Flush()
		},
	}
}

func newTargetRemoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <course-id>",
		Short: "Remove a registered course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, g)
			if err != nil {
				return err
			}
			ctx := contextOf(cmd)
			d, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := targets.NewRepo(d).Remove(ctx, args[0]); err != nil {
				return fmt.Errorf("remove %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
