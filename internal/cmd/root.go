package cmd

import (
	"fmt"
	"os"

	"github.com/hoppxi/brightsync/internal/logging"
	"github.com/hoppxi/brightsync/internal/manager"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "brightsync",
	Version: Version,
	Short:   "Keep a brightness slider in sync with an external brightness tool",
	Long:    "brightsync polls a brightness utility such as asdbctl and mirrors it to eww and D-Bus sliders",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		manager.Config.Path = configPath

		settings, err := manager.Config.Settings()
		if err != nil {
			logging.Setup("info", "text")
			if cmd.Name() == "start" || cmd.Name() == "reload" {
				fmt.Println("Error:", err)
				fmt.Println("Hint: run `brightsync generate-config` to write a fresh config.")
				os.Exit(1)
			}
		} else {
			logging.Setup(settings.Log.Level, settings.Log.Format)
		}

		switch cmd.Name() {
		case "start", "generate-config", "help", "reload":
			return
		}

		conn, err := manager.Manage.ConnectIPC()
		if err != nil {
			fmt.Println("Error:", err)
			fmt.Println("Hint: run `brightsync start` first")
			os.Exit(1)
		}
		conn.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/brightsync/brightsync.yaml)")

	rootCmd.AddCommand(generateConfigCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(pollCmd)
}

// send forwards one IPC command and prints the daemon's reply.
func send(command string) (string, bool) {
	response, err := manager.Manage.SendIPCCommand(command)
	if err != nil {
		fmt.Printf("Error: %v (Is the daemon running?)\n", err)
		return "", false
	}
	return response, true
}
