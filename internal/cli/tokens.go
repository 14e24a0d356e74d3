package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zshscan/zshscan/runtime/driver"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the scanner's token stream for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			fs := driver.ScanFile(src)
			printTokens(cmd, src, fs.Tokens)
			for _, delim := range fs.PendingHeredocs {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: heredoc %q not terminated before end of file\n", delim)
			}
			return nil
		},
	}
}

func printTokens(cmd *cobra.Command, src []byte, toks []driver.Token) {
	for _, t := range toks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s(%d) %q\n", t.Kind, driver.Column(src, t.Start), t.Text)
	}
}
