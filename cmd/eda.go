package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/limnoml/oxypred/experiment"
)

var edaCmd = &cobra.Command{
	Use:   "eda",
	Short: "Summarize the dataset and render the exploratory figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = experiment.RunEDA(cfg, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(edaCmd)
}
