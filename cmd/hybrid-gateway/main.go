package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/axiomhive/hybrid/internal/api"
	"github.com/axiomhive/hybrid/internal/attest"
	"github.com/axiomhive/hybrid/internal/auth"
	"github.com/axiomhive/hybrid/internal/config"
	"github.com/axiomhive/hybrid/internal/fusion"
	"github.com/axiomhive/hybrid/internal/infer"
	"github.com/axiomhive/hybrid/internal/ledger"
	"github.com/axiomhive/hybrid/internal/ledger/sqlstore"
	"github.com/axiomhive/hybrid/internal/pipeline"
	"github.com/axiomhive/hybrid/internal/rules"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(addr string, cfg config.Config) (*http.Server, error) {
	rulesEngine, err := rules.NewEngine(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	scorer, err := infer.LoadScorer(cfg.ModelPath)
	if err != nil {
		return nil, err
	}

	mode, err := fusion.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	orch, err := fusion.NewOrchestrator(mode, fusion.Weights{
		Symbolic:      cfg.Weights.Symbolic,
		Probabilistic: cfg.Weights.Probabilistic,
	})
	if err != nil {
		return nil, err
	}

	var store ledger.Store
	if cfg.DB.Driver == "sqlite" {
		sqlStore, err := sqlstore.OpenSQLite(cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		store = sqlStore
	} else {
		store = ledger.NewInMemoryStore()
	}

	var signer attest.Signer
	if cfg.Attestation.Strategy == "ed25519" {
		keySigner, err := attest.LoadKeySigner(cfg.Attestation.SigningKey.KeyID, cfg.Attestation.SigningKey.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		signer = keySigner
	}

	engine, err := attest.NewEngine(attest.EngineInput{
		Strategy: cfg.Attestation.Strategy,
		Signer:   signer,
		Sink:     store,
	})
	if err != nil {
		return nil, err
	}

	svc, err := pipeline.NewService(pipeline.ServiceInput{
		Deterministic:       rulesEngine,
		Probabilistic:       scorer,
		Orchestrator:        orch,
		Attestor:            engine,
		Store:               store,
		ComplianceFramework: cfg.ComplianceMode,
		RulesetHash:         rulesEngine.Hash(),
		ModelID:             scorer.ModelID(),
	})
	if err != nil {
		return nil, err
	}

	h := &api.Handler{
		Auth:     auth.NewAuthenticatorFromEnv(),
		Pipeline: svc,
		Attestor: engine,
		Store:    store,
	}
	return &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(addr string, cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("hybrid-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to gateway config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("AXIOM_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	addr := firstNonEmpty(getenv("AXIOM_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.Mode = firstNonEmpty(getenv("AXIOM_MODE"), cfg.Mode, "hybrid")
	cfg.RulesPath = firstNonEmpty(getenv("AXIOM_RULES_PATH"), cfg.RulesPath, "rulesets/hybrid.yaml")
	cfg.ModelPath = firstNonEmpty(getenv("AXIOM_MODEL_PATH"), cfg.ModelPath, "models/linear.yaml")

	server, err := factory(addr, cfg)
	if err != nil {
		return err
	}

	log.Printf("hybrid-gateway listening on %s mode=%s", addr, cfg.Mode)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
