/*
	brightsync keeps a desktop brightness slider in step with an external
	brightness utility
*/

package main

import "github.com/hoppxi/brightsync/internal/cmd"

func main() {
	cmd.Execute()
}
