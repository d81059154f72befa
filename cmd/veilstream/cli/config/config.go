// Package config provides configuration management for the veilstream CLI.
package config

import "time"

// Config represents the veilstream CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	KeyServers KeyServersConfig `mapstructure:"keyservers"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Session    SessionConfig    `mapstructure:"session"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
}

// StorageConfig holds blob network endpoints.
type StorageConfig struct {
	Publishers []string `mapstructure:"publishers"`
	Aggregator string   `mapstructure:"aggregator"`
	Epochs     int      `mapstructure:"epochs"`
}

// KeyServersConfig holds the threshold key-server set.
type KeyServersConfig struct {
	Threshold    int               `mapstructure:"threshold"`
	VerifyOnInit bool              `mapstructure:"verify_on_init"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	Servers      []KeyServerConfig `mapstructure:"servers"`
}

// KeyServerConfig holds one server entry.
type KeyServerConfig struct {
	ServerID  string `mapstructure:"server_id"`
	Weight    int    `mapstructure:"weight"`
	URL       string `mapstructure:"url"`
	PublicKey string `mapstructure:"public_key"` // base64
}

// LedgerConfig holds chain read access settings.
type LedgerConfig struct {
	RPC     string `mapstructure:"rpc"`
	Package string `mapstructure:"package"`
}

// SessionConfig holds session key settings.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// WalletConfig holds local signer settings.
type WalletConfig struct {
	KeyFile string `mapstructure:"keyfile"`
}
