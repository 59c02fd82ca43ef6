package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr     string            `yaml:"listen_addr"`
	Mode           string            `yaml:"mode"`
	Weights        WeightsConfig     `yaml:"weights"`
	RulesPath      string            `yaml:"rules_path"`
	ModelPath      string            `yaml:"model_path"`
	ComplianceMode string            `yaml:"compliance_mode"`
	Attestation    AttestationConfig `yaml:"attestation"`
	DB             DBConfig          `yaml:"db"`
}

type WeightsConfig struct {
	Symbolic      float64 `yaml:"symbolic"`
	Probabilistic float64 `yaml:"probabilistic"`
}

type AttestationConfig struct {
	Strategy   string           `yaml:"strategy"`
	SigningKey SigningKeyConfig `yaml:"signing_key"`
}

type SigningKeyConfig struct {
	KeyID          string `yaml:"key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.RulesPath == "" {
		return fmt.Errorf("rules_path is required")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model_path is required")
	}

	switch c.Mode {
	case "", "symbolic", "probabilistic", "hybrid", "voting":
	default:
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}

	switch c.Attestation.Strategy {
	case "", "sha256":
	case "ed25519":
		if c.Attestation.SigningKey.PrivateKeyPath == "" {
			return fmt.Errorf("attestation.signing_key.private_key_path is required for ed25519")
		}
	default:
		return fmt.Errorf("unknown attestation strategy: %s", c.Attestation.Strategy)
	}

	if c.DB.Driver != "" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is set")
	}

	return nil
}
