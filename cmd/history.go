package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hr-screener/internal/history"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Work with the ledger of screening decisions",
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the decision ledger to an Excel workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")
		return exportHistory(out)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyExportCmd)

	historyCmd.PersistentFlags().String("history-file", "", "decision ledger file (overrides history-file from config)")
	historyExportCmd.Flags().StringP("out", "o", "history.xlsx", "output workbook")

	viper.BindPFlag("history-file", historyCmd.PersistentFlags().Lookup("history-file"))
}

func exportHistory(out string) error {
	logger := newLogger()

	path := viper.GetString("history-file")
	if path == "" {
		return fmt.Errorf("history-file is not configured")
	}

	records, err := history.NewLedger(path).Load()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	written, err := history.ExportXLSX(records, out)
	if err != nil {
		return fmt.Errorf("exporting history: %w", err)
	}

	logger.Info("history exported", zap.String("file", written), zap.Int("records", len(records.Items)))

	return nil
}
