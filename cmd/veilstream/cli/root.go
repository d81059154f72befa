// Package cli implements the veilstream command-line interface.
package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veilstream/veilstream"
	"github.com/veilstream/veilstream/cmd/veilstream/cli/config"
	"github.com/veilstream/veilstream/localsigner"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "veilstream",
	Short: "Publish and fetch encrypted content on the blob network",
	Long: `Veilstream is a CLI for the secure content distribution pipeline.

Content is encrypted client-side with threshold encryption and stored on a
content-addressed blob network. Decryption is gated by on-chain proof of
entitlement: ownership of the content's space or an active subscription.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/veilstream/config.yaml)")
	rootCmd.Version = version
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// loadConfig wires viper: explicit flag, then XDG config path, then env.
func loadConfig(_ *cobra.Command, _ []string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		viper.SetConfigFile(filepath.Join(dir, "config.yaml"))
	}
	viper.SetEnvPrefix("VEILSTREAM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// currentConfig unmarshals the effective configuration.
func currentConfig() (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// newClient creates a veilstream client from configuration. withWallet
// additionally loads the local signer, prompting for a passphrase when the
// key file is protected.
func newClient(withWallet bool) (*veilstream.Client, error) {
	cfg, err := currentConfig()
	if err != nil {
		return nil, err
	}

	opts := []veilstream.ClientOption{
		veilstream.WithPublishers(cfg.Storage.Publishers),
		veilstream.WithAggregator(cfg.Storage.Aggregator),
	}
	if verbose {
		opts = append(opts, veilstream.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}

	if len(cfg.KeyServers.Servers) > 0 {
		servers := make([]veilstream.KeyServerConfig, 0, len(cfg.KeyServers.Servers))
		for _, s := range cfg.KeyServers.Servers {
			var pub []byte
			if s.PublicKey != "" {
				pub, err = base64.StdEncoding.DecodeString(s.PublicKey)
				if err != nil {
					return nil, fmt.Errorf("key server %s: bad public key: %w", s.ServerID, err)
				}
			}
			servers = append(servers, veilstream.KeyServerConfig{
				ServerID:  s.ServerID,
				Weight:    s.Weight,
				URL:       s.URL,
				PublicKey: pub,
			})
		}
		opts = append(opts,
			veilstream.WithKeyServers(servers, cfg.KeyServers.Threshold),
			veilstream.WithVerifyOnInit(cfg.KeyServers.VerifyOnInit),
		)
		if cfg.KeyServers.Timeout > 0 {
			opts = append(opts, veilstream.WithDecryptTimeout(cfg.KeyServers.Timeout))
		}
	}

	if cfg.Ledger.RPC != "" {
		opts = append(opts, veilstream.WithLedgerRPC(cfg.Ledger.RPC))
	}
	if cfg.Ledger.Package != "" {
		opts = append(opts, veilstream.WithPolicyPackage(cfg.Ledger.Package))
	}
	if cfg.Session.TTL > 0 {
		opts = append(opts, veilstream.WithSessionTTL(cfg.Session.TTL))
	}

	if withWallet {
		signer, err := loadSigner(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, veilstream.WithSigner(signer))
	}

	return veilstream.NewClient(opts...)
}

// loadSigner opens the configured wallet key file.
func loadSigner(cfg *config.Config) (*localsigner.Signer, error) {
	path := cfg.Wallet.KeyFile
	if path == "" {
		var err error
		path, err = config.DefaultKeyFile()
		if err != nil {
			return nil, err
		}
	}

	signer, err := localsigner.Load(path, "")
	if err == nil {
		return signer, nil
	}

	// Protected key file: prompt once and retry.
	pass, perr := promptPassphrase(fmt.Sprintf("Passphrase for %s: ", path))
	if perr != nil {
		return nil, perr
	}
	return localsigner.Load(path, pass)
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// formatError converts veilstream errors to user-facing guidance. Each
// entitlement failure gets role-specific wording so the caller knows
// whether to retry, subscribe, or reconnect a wallet.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, veilstream.ErrWalletRequired),
		errors.Is(err, veilstream.ErrWalletUnavailable):
		return "Error: no wallet available (connect a wallet or run 'veilstream keygen')"
	case errors.Is(err, veilstream.ErrSubscriptionProofMissing):
		return "Error: no active subscription for this space (subscribe to unlock)"
	case errors.Is(err, veilstream.ErrOwnershipProofMissing):
		return "Error: you do not own this space"
	case errors.Is(err, veilstream.ErrEntitlementRejected):
		return "Error: entitlement rejected by key servers (credential revoked or expired)"
	case errors.Is(err, veilstream.ErrThresholdNotReached):
		return "Error: not enough key servers responded (network issue, try again)"
	case errors.Is(err, veilstream.ErrSessionExpired):
		return "Error: session expired (retry to sign a fresh session key)"
	case errors.Is(err, veilstream.ErrPublishersExhausted):
		return "Error: all publishers failed (network issue, try again)"
	case errors.Is(err, veilstream.ErrDownloadFailure):
		return "Error: download failed (network issue, try again)"
	case errors.Is(err, veilstream.ErrInvalidResourceID):
		return fmt.Sprintf("Error: invalid resource id: %v", err)
	case errors.Is(err, veilstream.ErrEncryptionUnavailable):
		return "Error: encryption unavailable; refusing to store plaintext (configure key servers)"
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
