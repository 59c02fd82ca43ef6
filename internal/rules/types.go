package rules

type Ruleset struct {
	RulesetID      string   `yaml:"ruleset_id"`
	RulesetVersion string   `yaml:"ruleset_version"`
	Defaults       Defaults `yaml:"defaults"`
	Rules          []Rule   `yaml:"rules"`
}

type Defaults struct {
	Decision string `yaml:"decision"`
	Reason   string `yaml:"reason"`
}

type Rule struct {
	ID     string `yaml:"id"`
	Match  Match  `yaml:"match"`
	Effect Effect `yaml:"effect"`
}

type Match struct {
	Action   string `yaml:"action"`
	Resource string `yaml:"resource"`
	Env      string `yaml:"env"`
}

type Effect struct {
	Decision string `yaml:"decision"`
	Reason   string `yaml:"reason"`
	Risk     string `yaml:"risk"`
}
