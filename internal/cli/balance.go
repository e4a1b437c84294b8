package cli

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/chain/eth"
	"github.com/ethervault/ethervault/internal/chain/eth/rpc"
	"github.com/ethervault/ethervault/internal/output"
	"github.com/ethervault/ethervault/internal/price"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// newRPCClient builds the node client from settings.
func newRPCClient() *rpc.Client {
	return rpc.NewClient(settings.RPCURL, rpc.WithLogger(logger))
}

// requireAddress returns the active wallet address or fails when no
// wallet is initialized.
func requireAddress() (string, error) {
	if cfg.Address == "" {
		return "", walleterr.WithSuggestion(walleterr.ErrWalletNotFound,
			"initialize one with create, restore, or import")
	}
	return cfg.Address, nil
}

// assetBalance is one row of the balance report.
type assetBalance struct {
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
	Price   string `json:"price,omitempty"`
	Value   string `json:"value,omitempty"`
}

type balanceReport struct {
	Address  string         `json:"address"`
	Currency string         `json:"currency"`
	Assets   []assetBalance `json:"assets"`
}

func newBalanceCmd() *cobra.Command {
	var noPrices bool

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show native and token balances with fiat valuation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := requireAddress()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := newRPCClient()

			report := balanceReport{Address: address, Currency: settings.FiatCurrency}

			nativeWei, err := client.Balance(ctx, address)
			if err != nil {
				return err
			}
			report.Assets = append(report.Assets, assetBalance{
				Symbol:  settings.NativeSymbol,
				Balance: eth.FormatUnits(nativeWei, eth.NativeDecimals),
			})

			// Token rows follow in symbol order for stable output.
			symbols := make([]string, 0, len(cfg.Contracts))
			for symbol := range cfg.Contracts {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)

			for _, symbol := range symbols {
				token := eth.NewToken(client, cfg.Contracts[symbol])
				decimals, err := token.Decimals(ctx)
				if err != nil {
					return err
				}
				raw, err := token.BalanceOf(ctx, address)
				if err != nil {
					return err
				}
				report.Assets = append(report.Assets, assetBalance{
					Symbol:  symbol,
					Balance: eth.FormatUnits(raw, decimals),
				})
			}

			if !noPrices {
				attachValuations(ctx, &report)
			}

			return renderBalances(&report)
		},
	}
	cmd.Flags().BoolVar(&noPrices, "no-prices", false, "skip fiat valuation lookup")
	return cmd
}

// attachValuations fills in fiat prices and values. Quotes are best
// effort; a failed lookup leaves the columns empty rather than failing
// the whole command.
func attachValuations(ctx context.Context, report *balanceReport) {
	symbols := make([]string, 0, len(report.Assets))
	for _, a := range report.Assets {
		symbols = append(symbols, a.Symbol)
	}

	quotes, err := price.NewClient(settings.PriceAPIKey).Prices(ctx, symbols, report.Currency)
	if err != nil {
		logger.Error("price lookup failed: %v", err)
		return
	}

	for i := range report.Assets {
		p, ok := quotes[report.Assets[i].Symbol]
		if !ok {
			continue
		}
		report.Assets[i].Price = fmt.Sprintf("%.2f", p)

		// Display-only arithmetic; the chain never sees these numbers.
		bal, _, err := big.ParseFloat(report.Assets[i].Balance, 10, 64, big.ToNearestEven)
		if err != nil {
			continue
		}
		value := new(big.Float).Mul(bal, big.NewFloat(p))
		report.Assets[i].Value = fmt.Sprintf("%.2f", value)
	}
}

func renderBalances(report *balanceReport) error {
	if formatter.IsJSON() {
		return formatter.Print(report)
	}

	if err := formatter.Printf("Address: %s\n\n", report.Address); err != nil {
		return err
	}

	table := output.NewTable("ASSET", "BALANCE",
		fmt.Sprintf("PRICE (%s)", report.Currency),
		fmt.Sprintf("VALUE (%s)", report.Currency))
	for _, a := range report.Assets {
		table.AddRow(a.Symbol, a.Balance, orDash(a.Price), orDash(a.Value))
	}
	return table.Render(formatter.Writer())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
