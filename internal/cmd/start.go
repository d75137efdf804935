package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoppxi/brightsync/internal/manager"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the brightness sync daemon in the foreground",
	Run: func(cmd *cobra.Command, args []string) {
		if conn, err := manager.Manage.ConnectIPC(); err == nil {
			conn.Close()
			fmt.Println("Daemon already running.")
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Println("Starting daemon... Press Ctrl+C to stop.")
		if err := manager.Manage.Run(ctx, manager.Config); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Daemon stopped.")
	},
}
