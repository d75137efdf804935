package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <level|+step|-step|expression>",
	Short: "Set display brightness in whole percent (e.g. 40, 40%, +10, \"level * 0.8\")",
	Args: func(cmd *cobra.Command, args []string) error {
		if p, _ := cmd.Flags().GetBool("prompt"); p {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		var expr string
		if p, _ := cmd.Flags().GetBool("prompt"); p {
			input, err := promptLevel()
			switch {
			case err == nil:
				expr = input
			case errors.Is(err, zenity.ErrCanceled):
				fmt.Println("Input cancelled.")
				return
			default:
				fmt.Println("Error:", err)
				return
			}
		} else {
			expr = args[0]
		}
		expr = strings.TrimSpace(expr)

		level, ok := absoluteLevel(expr)
		if err := checkLiteral(expr); err != nil {
			fmt.Println("Error:", err)
			return
		}
		if !ok || expr[0] == '+' || expr[0] == '-' {
			current, known, err := currentLevel()
			if err != nil {
				fmt.Println("Error:", err)
				return
			}
			if level, err = resolveLevel(expr, current, known); err != nil {
				fmt.Println("Error:", err)
				return
			}
		}

		if response, ok := send(fmt.Sprintf("SET %d%%", level)); ok {
			fmt.Println(response)
		}
	},
}

func currentLevel() (int, bool, error) {
	response, ok := send("GET")
	if !ok {
		return 0, false, errors.New("daemon unreachable")
	}
	return parseStateReply(response)
}

func promptLevel() (string, error) {
	current := ""
	if level, known, err := currentLevel(); err == nil && known {
		current = strconv.Itoa(level)
	}
	return zenity.Entry("Brightness (0-100, +N, -N or an expression over level)",
		zenity.Title("Brightness"),
		zenity.EntryText(current))
}

func init() {
	setCmd.Flags().Bool("prompt", false, "Ask for the level in a dialog")
}
