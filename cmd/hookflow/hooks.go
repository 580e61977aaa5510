package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hookflow/hookflow/domain/hook"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List pipeline stages and their aliases",
	Run:   runHooks,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}

func runHooks(cmd *cobra.Command, args []string) {
	for h := hook.Hook(0); h < hook.Count; h++ {
		names := h.Names()
		line := names[0]
		if len(names) > 1 {
			line += " (" + strings.Join(names[1:], ", ") + ")"
		}
		fmt.Println(line)
	}
}
