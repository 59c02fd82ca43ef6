package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/axiomhive/hybrid/internal/crypto"
)

type Loaded struct {
	Ruleset Ruleset
	Hash    string
	Bytes   []byte
}

// Load reads a YAML ruleset and computes its hash from the raw bytes.
func Load(path string) (Loaded, error) {
	// #nosec G304 -- path comes from operator-configured ruleset path.
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}

	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return Loaded{}, err
	}
	if err := validate(rs); err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Ruleset: rs,
		Hash:    crypto.DigestWithPrefix(data),
		Bytes:   data,
	}, nil
}

func validate(rs Ruleset) error {
	if rs.Defaults.Decision == "" {
		return fmt.Errorf("ruleset %s: defaults.decision is required", rs.RulesetID)
	}
	for _, rule := range rs.Rules {
		if rule.ID == "" {
			return fmt.Errorf("ruleset %s: every rule needs an id", rs.RulesetID)
		}
		if rule.Effect.Decision == "" {
			return fmt.Errorf("rule %s: effect.decision is required", rule.ID)
		}
	}
	return nil
}
