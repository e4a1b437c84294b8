package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ethervault/ethervault/internal/cipher"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const minPasswordLen = 8

// promptPassword reads a password with hidden input. Prompts go to
// stderr so piped stdout stays clean.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	raw, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	password := string(raw)
	cipher.ZeroBytes(raw)
	return password, nil
}

// promptNewPassword reads and confirms a new wallet password.
func promptNewPassword() (string, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return "", err
	}
	if len(password) < minPasswordLen {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput,
			"passwords do not match")
	}
	return password, nil
}

// promptPassphrase reads an optional BIP39 passphrase with
// confirmation.
func promptPassphrase() (string, error) {
	fmt.Fprintln(os.Stderr, "\nBIP39 passphrase (optional extra security layer):")
	fmt.Fprintln(os.Stderr, "WARNING: losing this passphrase makes the wallet unrecoverable!")

	passphrase, err := promptPassword("Enter passphrase (empty for none): ")
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", nil
	}

	confirm, err := promptPassword("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase != confirm {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput,
			"passphrases do not match")
	}
	return passphrase, nil
}

// promptMnemonic reads a mnemonic phrase from stdin. The input is
// visible; a recovery phrase has to be checked while typing.
func promptMnemonic() (string, error) {
	fmt.Fprint(os.Stderr, "Enter mnemonic phrase: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading mnemonic: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirmAction asks a yes/no question, defaulting to no.
func confirmAction(question string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
