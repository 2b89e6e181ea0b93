package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func updateMoveCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update-move <game-id> <ply> <san>",
		Short: "修改一步着法并重算后续局面",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ply, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("无效的序号: %s", args[1])
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.services.Game.UpdateMove(cmd.Context(), args[0], ply, args[2])
			if err != nil {
				return err
			}
			return printDetail(cmd.OutOrStdout(), detail, "table")
		},
	}
}

func insertMoveCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert-move <game-id> <after-ply> <san>",
		Short: "在指定半回合之后插入着法，0表示插在最前面",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			after, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("无效的序号: %s", args[1])
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.services.Game.InsertMove(cmd.Context(), args[0], after, args[2])
			if err != nil {
				return err
			}
			return printDetail(cmd.OutOrStdout(), detail, "table")
		},
	}
}

func verifyCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <game-id>",
		Short: "检查存储的局面是否与重算结果一致",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			bad, err := a.services.Game.Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(bad) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "consistent")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inconsistent plies: %v\n", bad)
			return fmt.Errorf("%d 步局面不一致，可使用 rebuild 修复", len(bad))
		},
	}
}

func rebuildCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <game-id>",
		Short: "从初始局面重算整盘棋",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.services.Game.Rebuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDetail(cmd.OutOrStdout(), detail, "table")
		},
	}
}

func deleteCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game-id>",
		Short: "删除对局",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.services.Game.DeleteGame(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
