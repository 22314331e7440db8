package main

import (
	"fmt"
	"os"

	"github.com/infieles/reportes/cmd"
)

var (
	version = "0.1.0-dev"
	commit  = "main"
)

func main() {
	root := cmd.NewRootCommand(cmd.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
