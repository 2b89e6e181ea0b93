package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd(opts *appOptions) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export <game-id>",
		Short: "导出PGN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			pgn, err := a.services.Game.ExportPGN(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outFile == "" {
				fmt.Fprint(cmd.OutOrStdout(), pgn)
				return nil
			}
			return os.WriteFile(outFile, []byte(pgn), 0o644)
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "输出文件，默认写到标准输出")
	return cmd
}
