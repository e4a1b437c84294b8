package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/chain/eth"
	"github.com/ethervault/ethervault/internal/output"
)

func newAddContractCmd() *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "add-contract <symbol> <address>",
		Short: "Register an ERC-20 token contract",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, address := strings.ToUpper(args[0]), args[1]

			if !noVerify {
				// Probe the contract so a typo in the address fails here,
				// not at send time.
				token := eth.NewToken(newRPCClient(), address)
				onChainSymbol, err := token.Symbol(cmd.Context())
				if err != nil {
					return err
				}
				decimals, err := token.Decimals(cmd.Context())
				if err != nil {
					return err
				}
				logger.Debug("verified contract %s: symbol=%s decimals=%d", address, onChainSymbol, decimals)

				if onChainSymbol != "" && !strings.EqualFold(onChainSymbol, symbol) {
					if err := formatter.Printf("Note: contract reports symbol %q, registering as %q.\n",
						onChainSymbol, symbol); err != nil {
						return err
					}
				}
			}

			if err := cfg.AddContract(symbol, address); err != nil {
				return err
			}
			return output.FormatSuccess(formatter.Writer(),
				"Registered "+symbol+".", formatFor(formatter))
		},
	}
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the on-chain contract probe")
	return cmd
}

func newRemoveContractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-contract <symbol>",
		Short: "Remove a registered token contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			if err := cfg.RemoveContract(symbol); err != nil {
				return err
			}
			return output.FormatSuccess(formatter.Writer(),
				"Removed "+symbol+".", formatFor(formatter))
		},
	}
}
