// Command settingsctl inspects and edits per-record settings stored in a
// SQLite database, using the declarations of a settings.yml file.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-settings/pkg/config"
)

func main() {
	root := newRootCmd(config.ParseEnv)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
