package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/share"
	"github.com/spf13/cobra"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Encode or decode static share links",
	}
	cmd.AddCommand(newShareEncodeCmd(), newShareDecodeCmd())
	return cmd
}

func newShareEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file.json>",
		Short: "Encode a schedule file into a link blob (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read schedule: %w", err)
			}

			var schedule models.SharedSchedule
			if err := json.Unmarshal(data, &schedule); err != nil {
				return fmt.Errorf("failed to parse schedule: %w", err)
			}
			encoded, err := share.EncodeCompact(&schedule)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}

func newShareDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <blob>",
		Short: "Decode a link blob into schedule JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := share.DecodeCompact(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, schedule)
		},
	}
}
