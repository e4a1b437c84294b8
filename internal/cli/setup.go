package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/keys"
	"github.com/ethervault/ethervault/internal/store"
	"github.com/ethervault/ethervault/internal/wallet"
)

// newLifecycle builds the lifecycle for the active home directory.
func newLifecycle() *wallet.Lifecycle {
	return wallet.New(store.New(home()), cfg, logger)
}

// walletInfo is the JSON shape for setup command output.
type walletInfo struct {
	Address        string `json:"address"`
	Mnemonic       string `json:"mnemonic,omitempty"`
	DerivationPath string `json:"derivation_path,omitempty"`
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new wallet with a fresh 24-word mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			passphrase, err := promptPassphrase()
			if err != nil {
				return err
			}
			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			km, err := newLifecycle().Create(passphrase, password)
			if err != nil {
				return err
			}
			return printNewWallet(km, true)
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore a wallet from an existing mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			mnemonic, err := promptMnemonic()
			if err != nil {
				return err
			}
			passphrase, err := promptPassword("Enter BIP39 passphrase (empty for none): ")
			if err != nil {
				return err
			}
			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			km, err := newLifecycle().Restore(mnemonic, passphrase, password)
			if err != nil {
				return err
			}
			return printNewWallet(km, false)
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import a wallet from a raw private key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			privateKey, err := promptPassword("Enter private key (hex): ")
			if err != nil {
				return err
			}
			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			km, err := newLifecycle().Import(privateKey, password)
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.Print(walletInfo{Address: km.Address})
			}
			if err := formatter.Printf("Wallet imported.\n\nAddress: %s\n", km.Address); err != nil {
				return err
			}
			return formatter.Println("\nNote: imported wallets have no recovery mnemonic. Keep the key backed up elsewhere.")
		},
	}
}

// printNewWallet shows the new account and, for mnemonic wallets, the
// recovery phrase with a numbered word list.
func printNewWallet(km *keys.KeyMaterial, created bool) error {
	if formatter.IsJSON() {
		return formatter.Print(walletInfo{
			Address:        km.Address,
			Mnemonic:       km.Mnemonic,
			DerivationPath: km.Path,
		})
	}

	verb := "restored"
	if created {
		verb = "created"
	}
	if err := formatter.Printf("Wallet %s.\n\nAddress: %s\nDerivation path: %s\n", verb, km.Address, km.Path); err != nil {
		return err
	}

	if created {
		if err := formatter.Printf("\nRecovery phrase (write it down, it is shown only once):\n\n"); err != nil {
			return err
		}
		words := strings.Fields(km.Mnemonic)
		for i, word := range words {
			if err := formatter.Printf("%3d. %s\n", i+1, word); err != nil {
				return err
			}
		}
	}

	return formatter.Println(fmt.Sprintf("\nData directory: %s", home()))
}
