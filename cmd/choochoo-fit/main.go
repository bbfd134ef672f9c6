// Command choochoo-fit compiles a FIT profile workbook into a schema cache
// and decodes FIT activity files against it, the two Process-level
// operations spec.md §6 names (CompileProfile, Decode), following the
// cobra-based command-tree style of the teacher's nearest CLI sibling,
// saferwall/pe's cmd/pedumper.go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "choochoo-fit",
		Short: "FIT activity-file profile compiler and decoder",
		Long:  "Compiles a FIT SDK profile workbook into a schema cache and decodes FIT activity files against it.",
	}

	rootCmd.AddCommand(newCompileProfileCmd())
	rootCmd.AddCommand(newDecodeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
