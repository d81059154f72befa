package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veilstream/veilstream/cmd/veilstream/cli/config"
	"github.com/veilstream/veilstream/localsigner"
)

var (
	keygenOutput string
	keygenForce  bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a wallet key file",
	Long: `Keygen generates an ed25519 wallet key and writes it to the config
directory. You are prompted for an optional passphrase; when one is given
the key file is sealed with it.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenOutput, "output", "o", "", "Key file path (default config dir)")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "Overwrite an existing key file")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(_ *cobra.Command, _ []string) error {
	path := keygenOutput
	if path == "" {
		var err error
		path, err = config.DefaultKeyFile()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !keygenForce {
		return fmt.Errorf("key file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	pass, err := promptPassphrase("Passphrase (empty for none): ")
	if err != nil {
		return err
	}
	if pass != "" {
		confirm, err := promptPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if confirm != pass {
			return errors.New("passphrases do not match")
		}
	}

	signer, err := localsigner.NewEphemeral()
	if err != nil {
		return err
	}
	if err := signer.Save(path, pass); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Printf("  address: %s\n", signer.Address())
	return nil
}

// promptPassphrase reads a passphrase without echo when attached to a
// terminal, falling back to a plain line read otherwise.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil && err.Error() != "unexpected newline" {
		return "", err
	}
	return line, nil
}
