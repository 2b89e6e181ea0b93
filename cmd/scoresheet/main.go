package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &appOptions{}
	root := &cobra.Command{
		Use:           "scoresheet",
		Short:         "棋谱录入与着法序列维护工具",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件路径")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出日志")

	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(importPGNCmd(opts))
	root.AddCommand(importRowsCmd(opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(showCmd(opts))
	root.AddCommand(updateMoveCmd(opts))
	root.AddCommand(insertMoveCmd(opts))
	root.AddCommand(verifyCmd(opts))
	root.AddCommand(rebuildCmd(opts))
	root.AddCommand(exportCmd(opts))
	root.AddCommand(deleteCmd(opts))
	root.AddCommand(versionCmd())
	return root
}
