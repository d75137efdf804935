package config

import (
	"embed"
)

//go:embed brightsync.yaml brightness.yuck
var embeddedFiles embed.FS

func ConfigFS() embed.FS {
	return embeddedFiles
}

// DefaultConfig returns the stock brightsync.yaml.
func DefaultConfig() []byte {
	data, err := embeddedFiles.ReadFile("brightsync.yaml")
	if err != nil {
		panic(err)
	}
	return data
}
