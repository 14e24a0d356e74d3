package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zshscan/zshscan/internal/snapshot"
	"github.com/zshscan/zshscan/runtime/driver"
)

func newSnapshotCmd() *cobra.Command {
	var write, check bool
	var goldenPath string

	cmd := &cobra.Command{
		Use:   "snapshot <file>",
		Short: "Write or check a CBOR golden snapshot of a file's token stream and final scanner state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write == check {
				return errors.New("exactly one of --write or --check is required")
			}
			path := args[0]
			if goldenPath == "" {
				goldenPath = path + ".snapshot.cbor"
			}

			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			observed := snapshot.Capture(driver.ScanFile(src))

			if write {
				data, err := observed.MarshalBinary()
				if err != nil {
					return err
				}
				if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
					return fmt.Errorf("write golden %s: %w", goldenPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d tokens)\n", goldenPath, len(observed.Tokens))
				return nil
			}

			goldenData, err := os.ReadFile(goldenPath)
			if err != nil {
				return fmt.Errorf("read golden %s: %w", goldenPath, err)
			}
			golden, err := snapshot.Decode(goldenData)
			if err != nil {
				return err
			}
			if diff := snapshot.Diff(golden, observed); diff != "" {
				return fmt.Errorf("snapshot mismatch for %s (-golden +observed):\n%s", path, diff)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s matches %s\n", path, goldenPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Create or overwrite the golden snapshot")
	cmd.Flags().BoolVar(&check, "check", false, "Diff the current scan against the golden snapshot")
	cmd.Flags().StringVar(&goldenPath, "golden", "", "Golden snapshot path (default <file>.snapshot.cbor)")
	return cmd
}
