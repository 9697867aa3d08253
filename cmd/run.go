package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/limnoml/oxypred/experiment"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full experiment: EDA, training, and evaluation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = experiment.Run(cfg, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
