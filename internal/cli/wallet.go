package cli

import (
	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/output"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the raw private key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			password, err := promptPassword("Enter wallet password: ")
			if err != nil {
				return err
			}

			privateKey, err := newLifecycle().Export(password)
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.Print(map[string]string{"private_key": privateKey})
			}
			if err := formatter.Printf("WARNING: anyone with this key controls the wallet.\n\n"); err != nil {
				return err
			}
			return formatter.Println(privateKey)
		},
	}
}

// recordOutput is the JSON shape of a decrypted wallet record.
type recordOutput struct {
	Address        string  `json:"address"`
	PrivateKey     string  `json:"private_key"`
	MnemonicSecret *string `json:"mnemonic_secret"`
	Passphrase     *string `json:"passphrase"`
	DerivationPath *string `json:"derivation_path"`
}

func newDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt and show the full wallet record",
		Long: `Decrypt and show the full wallet record, including the recovery
mnemonic. Wallets imported from a raw key have no record.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			password, err := promptPassword("Enter wallet password: ")
			if err != nil {
				return err
			}

			rec, err := newLifecycle().DecryptRecord(password)
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.Print(recordOutput{
					Address:        rec.Address,
					PrivateKey:     rec.PrivateKey,
					MnemonicSecret: rec.MnemonicSecret,
					Passphrase:     rec.Passphrase,
					DerivationPath: rec.DerivationPath,
				})
			}

			table := output.NewTable("FIELD", "VALUE")
			table.AddRow("address", rec.Address)
			table.AddRow("private_key", rec.PrivateKey)
			table.AddRow("mnemonic", strOrDash(rec.MnemonicSecret))
			table.AddRow("passphrase", strOrDash(rec.Passphrase))
			table.AddRow("derivation_path", strOrDash(rec.DerivationPath))
			return table.Render(formatter.Writer())
		},
	}
}

func newEraseCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Delete all wallet data from disk",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !force {
				ok, err := confirmAction("This permanently deletes the wallet and its keys. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					return walleterr.WithSuggestion(walleterr.ErrInvalidInput,
						"erase aborted, pass --force to skip the prompt")
				}
			}

			if err := newLifecycle().Erase(); err != nil {
				return err
			}
			return output.FormatSuccess(formatter.Writer(), "Wallet erased.", formatFor(formatter))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// formatFor extracts the concrete format for helpers that take one.
func formatFor(f *output.Formatter) output.Format {
	if f.IsJSON() {
		return output.FormatJSON
	}
	return output.FormatText
}
