package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wfunc/scoresheet/internal/service"
	"gopkg.in/yaml.v3"
)

func listCmd(opts *appOptions) *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出对局，最新的在前",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.services.Game.ListGames(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tWHITE\tBLACK\tSOURCE\tCREATED")
			for _, g := range list.Games {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					g.ID, g.Name, g.White, g.Black, g.Source, g.CreatedAt.Format("2006-01-02 15:04"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "共 %d 盘\n", list.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "页码")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "每页数量")
	return cmd
}

func showCmd(opts *appOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <game-id>",
		Short: "显示对局和全部着法",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.services.Game.GetGame(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDetail(cmd.OutOrStdout(), detail, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "输出格式: table, json, yaml")
	return cmd
}

// printDetail 按格式输出对局详情
func printDetail(out io.Writer, detail *service.GameDetail, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(detail)
	case "table", "":
	default:
		return fmt.Errorf("未知输出格式: %s", format)
	}

	g := detail.Game
	fmt.Fprintf(out, "%s  %s (%s - %s)\n", g.ID, g.Name, g.White, g.Black)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLY\tSAN\tLEGAL\tFEN")
	for _, m := range detail.Moves {
		legal := "yes"
		if !m.Legal {
			legal = "no"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Ply, m.SAN, legal, m.FENAfter)
	}
	return w.Flush()
}
