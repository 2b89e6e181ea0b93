package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wfunc/scoresheet/internal/game"
	"github.com/wfunc/scoresheet/internal/service"
)

func importPGNCmd(opts *appOptions) *cobra.Command {
	var req service.ImportPGNRequest
	cmd := &cobra.Command{
		Use:   "import-pgn <file>",
		Short: "导入PGN文件（只导入主线）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req.PGN = string(raw)

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.services.Game.CreateFromPGN(cmd.Context(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d moves\n", detail.Game.ID, len(detail.Moves))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "对局名称，默认取PGN的Event标签")
	cmd.Flags().StringVar(&req.White, "white", "", "白方")
	cmd.Flags().StringVar(&req.Black, "black", "", "黑方")
	return cmd
}

func importRowsCmd(opts *appOptions) *cobra.Command {
	var req service.SaveRowsRequest
	cmd := &cobra.Command{
		Use:   "import-rows <file.json>",
		Short: "导入记录纸JSON，格式为 [{\"n\":1,\"w\":\"e4\",\"b\":\"e5\"}]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var rows []game.Row
			if err := json.Unmarshal(raw, &rows); err != nil {
				return fmt.Errorf("解析记录文件失败: %w", err)
			}
			req.Rows = rows

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.services.Game.CreateFromRows(cmd.Context(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d moves\n", detail.Game.ID, len(detail.Moves))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "对局名称")
	cmd.Flags().StringVar(&req.White, "white", "", "白方")
	cmd.Flags().StringVar(&req.Black, "black", "", "黑方")
	cmd.Flags().StringVar(&req.Source, "source", "manual", "来源: manual, ocr, csv")
	return cmd
}
