package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/veilstream/veilstream/cmd/veilstream/cli/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage veilstream configuration",
	Long: `View and modify veilstream configuration.

Without arguments, displays the current effective configuration.
Use subcommands to view the config path or initialize a config file.`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(_ *cobra.Command, _ []string) error {
		configDir, err := config.Dir()
		if err != nil {
			return err
		}
		fmt.Println(filepath.Join(configDir, "config.yaml"))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long: `Create a default configuration file at the XDG config path.

The file will be created at ~/.config/veilstream/config.yaml (or
$XDG_CONFIG_HOME/veilstream/config.yaml if set).`,
	RunE: runConfigInit,
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	configDir, err := config.Dir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, statErr := os.Stat(configPath); statErr == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}
	if mkdirErr := os.MkdirAll(configDir, 0o750); mkdirErr != nil {
		return mkdirErr
	}

	defaultConfig := map[string]any{
		"storage": map[string]any{
			"publishers": []string{},
			"aggregator": "",
			"epochs":     1,
		},
		"keyservers": map[string]any{
			"threshold":      2,
			"verify_on_init": true,
			"timeout":        "30s",
			"servers":        []any{},
		},
		"ledger": map[string]any{
			"rpc":     "",
			"package": "",
		},
		"session": map[string]any{
			"ttl": "10m",
		},
		"wallet": map[string]any{
			// keyfile omitted - defaults to the config directory
		},
	}

	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("(no configuration; run 'veilstream config init')")
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
