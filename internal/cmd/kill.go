package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the running daemon",
	Run: func(cmd *cobra.Command, args []string) {
		response, ok := send("STOP")
		if !ok {
			return
		}

		fmt.Printf("Server response: %s\n", response)

		if strings.Contains(response, "OK") {
			fmt.Println("brightsync daemon successfully shut down.")
		}
	},
}
