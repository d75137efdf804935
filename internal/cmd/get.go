package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the brightness the daemon currently displays",
	Run: func(cmd *cobra.Command, args []string) {
		response, ok := send("GET")
		if !ok {
			return
		}
		fmt.Println(strings.TrimPrefix(response, "OK: "))
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the brightness tool now instead of waiting for the next interval",
	Run: func(cmd *cobra.Command, args []string) {
		response, ok := send("POLL")
		if !ok {
			return
		}
		fmt.Println(strings.TrimPrefix(response, "OK: "))
	},
}
