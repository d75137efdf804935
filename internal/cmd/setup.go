package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoppxi/brightsync/config"
	"github.com/hoppxi/brightsync/internal/manager"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors brightsync.yaml for writing; durations stay strings so
// the file keeps its human-readable form.
type FileConfig struct {
	Interval string `yaml:"interval"`
	Source   string `yaml:"source"`
	Command  struct {
		Get     string `yaml:"get"`
		Set     string `yaml:"set"`
		Timeout string `yaml:"timeout"`
	} `yaml:"command"`
	Backlight struct {
		Root   string `yaml:"root"`
		Device string `yaml:"device"`
	} `yaml:"backlight"`
	Surfaces struct {
		Eww       bool   `yaml:"eww"`
		EwwPrefix string `yaml:"eww_prefix"`
		EwwOSD    string `yaml:"eww_osd"`
		DBus      bool   `yaml:"dbus"`
	} `yaml:"surfaces"`
	WatchUevents bool `yaml:"watch_uevents"`
	Log          struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
}

func defaultFileConfig() (FileConfig, error) {
	var conf FileConfig
	if err := yaml.Unmarshal(config.DefaultConfig(), &conf); err != nil {
		return conf, fmt.Errorf("embedded config is invalid: %w", err)
	}
	return conf, nil
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Generate brightsync.yaml (and optionally the eww widget)",
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)
		yamlPath := configPath
		if yamlPath == "" {
			yamlPath = manager.DefaultConfigPath()
		}

		if _, err := os.Stat(yamlPath); !os.IsNotExist(err) {
			if !confirm(reader, "brightsync.yaml already exists. Overwrite with new settings?") {
				return
			}
		}

		conf, err := defaultFileConfig()
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if defaults, _ := cmd.Flags().GetBool("defaults"); !defaults {
			promptFileConfig(reader, &conf)
		}

		if err := writeFileConfig(yamlPath, conf); err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Println("Config written to", yamlPath)

		if ewwDir, _ := cmd.Flags().GetString("eww"); ewwDir != "" {
			if err := extractWidget(ewwDir); err != nil {
				fmt.Println("Error:", err)
				return
			}
			fmt.Println("eww widget written to", filepath.Join(ewwDir, "brightness.yuck"))
		}
	},
}

func promptFileConfig(r *bufio.Reader, conf *FileConfig) {
	conf.Source = prompt(r, "Brightness source (command/backlight)", conf.Source)
	if conf.Source == manager.SourceBacklight {
		conf.Backlight.Device = prompt(r, "Backlight device (empty for first)", conf.Backlight.Device)
	} else {
		conf.Command.Get = prompt(r, "Get command", conf.Command.Get)
		conf.Command.Set = prompt(r, "Set command (level is appended)", conf.Command.Set)
	}
	conf.Interval = prompt(r, "Poll interval", conf.Interval)
}

func writeFileConfig(path string, conf FileConfig) error {
	d, err := yaml.Marshal(&conf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func extractWidget(targetDir string) error {
	content, err := config.ConfigFS().ReadFile("brightness.yuck")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(targetDir, "brightness.yuck"), content, 0o644)
}

func prompt(r *bufio.Reader, label, defaultValue string) string {
	fmt.Printf("%s [%s]: ", label, defaultValue)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func confirm(r *bufio.Reader, message string) bool {
	fmt.Printf("%s (y/N): ", message)
	input, _ := r.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}

func init() {
	generateConfigCmd.Flags().Bool("defaults", false, "Write the default config without prompting")
	generateConfigCmd.Flags().String("eww", "", "Also write the brightness.yuck widget into this eww config dir")
}
