package cli

import (
	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/output"
)

func newReceiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive",
		Short: "Show the wallet address for receiving funds",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			address, err := requireAddress()
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.Print(map[string]string{"address": address})
			}

			if err := formatter.Printf("Address: %s\n\n", address); err != nil {
				return err
			}
			return output.RenderQR(formatter.Writer(), address)
		},
	}
}
