package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "aitb",
	Short: "AI Textbook CLI",
	Long:  "Command line interface for the AI Textbook API: account management and AI content generation",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the RootCmd for command registration.
func GetRoot() *cobra.Command {
	return RootCmd
}
