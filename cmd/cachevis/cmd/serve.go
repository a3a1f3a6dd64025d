package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachevis/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive visualization dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel(cmd)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		open, _ := cmd.Flags().GetBool("open")

		monitor := monitoring.NewMonitor(model).WithPortNumber(port)
		if open {
			monitor.WithBrowser()
		}

		monitor.StartServer()

		select {}
	},
}

func init() {
	serveCmd.Flags().Int("port", envIntOr("CACHEVIS_PORT", 8080),
		"port to serve the dashboard on")
	serveCmd.Flags().Bool("open", false,
		"open the dashboard in the default browser")

	rootCmd.AddCommand(serveCmd)
}
