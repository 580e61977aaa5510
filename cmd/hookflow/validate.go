package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hookflow/hookflow/bootstrap"
	"github.com/hookflow/hookflow/domain/hook"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compile a rule file and report errors",
	Long: `Compile the rule file and report every diagnostic.

Examples:
  hookflow validate
  hookflow validate --file /etc/hookflow/rules.yaml --key rules.flow
  hookflow validate --hook remap`,
	RunE: runValidate,
}

var validateHook string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateHook, "hook", "post-load", "hook to load the document for (remap for per rule configuration)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	h := hook.Lookup(validateHook)
	if !h.Valid() {
		return fmt.Errorf("invalid hook name %q", validateHook)
	}

	reg, err := bootstrap.NewRegistries()
	if err != nil {
		return err
	}

	cfg, err := reg.CompileFile(ruleFile, keyPath, h)
	if err != nil {
		return err
	}
	defer cfg.Close()

	fmt.Printf("%s compiles cleanly\n", ruleFile)

	counts := cfg.DirectiveCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-16s %d\n", name, counts[name])
	}
	fmt.Printf("  %-16s %d bytes\n", "interned", cfg.Arena().Bytes())
	return nil
}
