package cmd

import (
	"fmt"
	"time"

	"github.com/hoppxi/brightsync/internal/manager"
	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Stop the running daemon and start a fresh one in the foreground",
	Run: func(cmd *cobra.Command, args []string) {
		if response, err := manager.Manage.SendIPCCommand("STOP"); err == nil {
			fmt.Printf("Server response: %s\n", response)
			waitForExit(2 * time.Second)
		}

		startCmd.Run(cmd, args) // restart in-place
	},
}

func waitForExit(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := manager.Manage.ConnectIPC()
		if err != nil {
			return
		}
		conn.Close()
		time.Sleep(50 * time.Millisecond)
	}
}
