package cli

import "github.com/spf13/cobra"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the healthlens build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("healthlens version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
