package cli

import (
	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/chain/eth"
	"github.com/ethervault/ethervault/internal/chain/eth/rpc"
	"github.com/ethervault/ethervault/internal/txbuilder"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// tokenRegistry resolves symbols against the configured contract
// registry, backed by the live node for balance and decimals reads.
type tokenRegistry struct {
	client *rpc.Client
}

func (r *tokenRegistry) Resolve(symbol string) (txbuilder.TokenReader, error) {
	address, ok := cfg.Contract(symbol)
	if !ok {
		return nil, walleterr.WithDetails(walleterr.ErrUnknownToken, map[string]string{
			"symbol": symbol,
		})
	}
	return eth.NewToken(r.client, address), nil
}

// sendResult is the JSON shape of a completed send.
type sendResult struct {
	TxHash      string `json:"tx_hash"`
	Fee         string `json:"fee"`
	Status      string `json:"status"`
	BlockNumber string `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
	Explorer    string `json:"explorer,omitempty"`
}

func newSendCmd() *cobra.Command {
	var (
		tokenSymbol string
		noWait      bool
	)

	cmd := &cobra.Command{
		Use:   "send <receiver> <amount>",
		Short: "Send the native asset or a registered token",
		Long: `Send funds to an address. Requesting exactly the full native balance
sends the maximum: the flat transfer fee is reserved and the remainder is
transferred.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			receiver, amount := args[0], args[1]

			if _, err := requireAddress(); err != nil {
				return err
			}

			password, err := promptPassword("Enter wallet password: ")
			if err != nil {
				return err
			}
			km, err := newLifecycle().Unlock(password)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := newRPCClient()
			builder := txbuilder.New(client, &tokenRegistry{client: client}, settings.TransferGasLimit, logger)

			var result *txbuilder.Result
			if tokenSymbol != "" {
				result, err = builder.SendToken(ctx, km, receiver, amount, tokenSymbol)
			} else {
				result, err = builder.SendNative(ctx, km, receiver, amount)
			}
			if err != nil {
				return err
			}

			out := sendResult{
				TxHash:   result.TxHash,
				Fee:      result.Fee() + " " + settings.NativeSymbol,
				Status:   "pending",
				Explorer: explorerLink(result.TxHash),
			}

			if noWait {
				return renderSend(&out)
			}

			if !formatter.IsJSON() {
				if err := formatter.Printf("Broadcast %s\nWaiting for confirmation...\n", result.TxHash); err != nil {
					return err
				}
			}

			receipt, err := builder.WaitForReceipt(ctx, result.TxHash, settings.ConfirmationTimeout())
			if err != nil {
				if walleterr.Is(err, walleterr.ErrConfirmationTimeout) {
					// The transaction may still confirm later; report it
					// as pending instead of failing the command.
					return renderSend(&out)
				}
				return err
			}

			out.BlockNumber = receipt.BlockNumber.String()
			out.GasUsed = receipt.GasUsed
			if receipt.Succeeded() {
				out.Status = "confirmed"
			} else {
				out.Status = "reverted"
			}
			return renderSend(&out)
		},
	}

	cmd.Flags().StringVarP(&tokenSymbol, "token", "t", "", "registered token symbol to send instead of the native asset")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "broadcast and exit without waiting for confirmation")
	return cmd
}

func renderSend(result *sendResult) error {
	if formatter.IsJSON() {
		return formatter.Print(result)
	}

	if err := formatter.Printf("Transaction: %s\nStatus: %s\nMax fee: %s\n",
		result.TxHash, result.Status, result.Fee); err != nil {
		return err
	}
	if result.BlockNumber != "" {
		if err := formatter.Printf("Block: %s\nGas used: %d\n", result.BlockNumber, result.GasUsed); err != nil {
			return err
		}
	}
	if result.Explorer != "" {
		return formatter.Printf("Explorer: %s\n", result.Explorer)
	}
	return nil
}

// explorerLink builds a block explorer URL for a transaction, empty
// when no explorer is configured.
func explorerLink(txHash string) string {
	if settings.ExplorerURL == "" {
		return ""
	}
	return settings.ExplorerURL + txHash
}
