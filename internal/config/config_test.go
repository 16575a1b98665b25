package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestLoad_DefaultsFromEnv(t *testing.T) {
	t.Setenv("CNFT_PROVIDER", "ws://primary:8546")
	t.Setenv("CNFT_CONTRACT_ADDRESS", testContract)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Ledger.PrimaryURL != "ws://primary:8546" {
		t.Errorf("unexpected primary %q", cfg.Ledger.PrimaryURL)
	}
	if got := cfg.Ledger.Secondary(); got != "ws://primary:8546" {
		t.Errorf("secondary should fall back to primary, got %q", got)
	}
	if cfg.Ledger.ChainID != 11421 {
		t.Errorf("unexpected chain id %d", cfg.Ledger.ChainID)
	}
	if cfg.Ledger.HealthInterval != 5*time.Second {
		t.Errorf("unexpected health interval %s", cfg.Ledger.HealthInterval)
	}
	if cfg.Ledger.GasLimit != 29900000 {
		t.Errorf("unexpected gas limit %d", cfg.Ledger.GasLimit)
	}
	if cfg.Ledger.MaxMessageSize != 100000000 {
		t.Errorf("unexpected message size %d", cfg.Ledger.MaxMessageSize)
	}
	if cfg.Ledger.ConfirmBlockTimeout != 20000 {
		t.Errorf("unexpected confirm block timeout %d", cfg.Ledger.ConfirmBlockTimeout)
	}
	if cfg.Health.Port != 8081 {
		t.Errorf("unexpected health port %d", cfg.Health.Port)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ledger:
  primary_url: ws://a:8546
  secondary_url: ws://b:8546
  contract_address: ` + testContract + `
  health_interval: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.Secondary() != "ws://b:8546" {
		t.Errorf("unexpected secondary %q", cfg.Ledger.Secondary())
	}
	if cfg.Ledger.HealthInterval != 2*time.Second {
		t.Errorf("unexpected interval %s", cfg.Ledger.HealthInterval)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Ledger: LedgerConfig{
			PrimaryURL:      "ws://a",
			ContractAddress: testContract,
			ChainID:         11421,
			HealthInterval:  time.Second,
			GasLimit:        1,
		}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing_primary", mutate: func(c *Config) { c.Ledger.PrimaryURL = "" }, wantErr: true},
		{name: "bad_contract", mutate: func(c *Config) { c.Ledger.ContractAddress = "nope" }, wantErr: true},
		{name: "zero_chain", mutate: func(c *Config) { c.Ledger.ChainID = 0 }, wantErr: true},
		{name: "petersburg", mutate: func(c *Config) { c.Ledger.Hardfork = "Petersburg" }},
		{name: "other_hardfork", mutate: func(c *Config) { c.Ledger.Hardfork = "london" }, wantErr: true},
		{name: "zero_interval", mutate: func(c *Config) { c.Ledger.HealthInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
