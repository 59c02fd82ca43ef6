// Package rules is the deterministic pathway: a first-match ruleset over
// the request's action/resource/env. The same input always yields the same
// record, so every decision it emits is marked verified with confidence 1.
package rules

import (
	"fmt"

	"github.com/axiomhive/hybrid/pkg/types"
)

type Engine struct {
	loaded Loaded
}

func NewEngine(path string) (*Engine, error) {
	loaded, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Engine{loaded: loaded}, nil
}

// Hash is the content hash of the raw ruleset bytes.
func (e *Engine) Hash() string {
	return e.loaded.Hash
}

func (e *Engine) RulesetID() string {
	return e.loaded.Ruleset.RulesetID
}

// Evaluate applies the first matching rule to the input, otherwise the
// ruleset defaults.
func (e *Engine) Evaluate(input types.RequestInput) (types.DecisionRecord, error) {
	rs := e.loaded.Ruleset

	for _, rule := range rs.Rules {
		if !matchRule(rule.Match, input) {
			continue
		}

		reason := rule.Effect.Reason
		if reason == "" {
			reason = "constraints satisfied"
		}
		return types.DecisionRecord{
			Decision:   rule.Effect.Decision,
			Confidence: types.Float(1.0),
			Reasoning:  fmt.Sprintf("rule %s matched: %s", rule.ID, reason),
			Verified:   true,
		}, nil
	}

	reason := rs.Defaults.Reason
	if reason == "" {
		reason = "no rule matched"
	}
	return types.DecisionRecord{
		Decision:   rs.Defaults.Decision,
		Confidence: types.Float(1.0),
		Reasoning:  fmt.Sprintf("default applied: %s", reason),
		Verified:   true,
	}, nil
}

func matchRule(match Match, input types.RequestInput) bool {
	if match.Action != "" && match.Action != input.Action {
		return false
	}
	if match.Resource != "" && match.Resource != input.Resource {
		return false
	}
	if match.Env != "" && match.Env != input.Env {
		return false
	}
	return true
}
