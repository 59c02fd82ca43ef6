package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/axiomhive/hybrid/internal/rules"
	"github.com/axiomhive/hybrid/pkg/types"
)

const defaultAddr = "http://localhost:8080"

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "decide":
		return handleDecide(args[2:], stdout, stderr)
	case "trail":
		return handleTrail(args[2:], stdout, stderr)
	case "verify":
		return handleVerify(args[2:], stdout, stderr)
	case "rules":
		return handleRules(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

// featureFlags collects repeated -feature name=value pairs.
type featureFlags map[string]float64

func (f featureFlags) String() string { return "" }

func (f featureFlags) Set(value string) error {
	name, raw, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return fmt.Errorf("feature must be name=value, got %q", value)
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("feature %s: %w", name, err)
	}
	f[name] = parsed
	return nil
}

func handleDecide(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("AXIOM_ADDR", defaultAddr), "gateway address")
	token := fs.String("token", envOrDefault("AXIOM_TOKEN", os.Getenv("AXIOM_DEV_TOKEN")), "bearer token")
	action := fs.String("action", "", "requested action")
	resource := fs.String("resource", "", "target resource")
	env := fs.String("env", "", "execution environment")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	features := featureFlags{}
	fs.Var(features, "feature", "numeric feature as name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	if *action == "" {
		fmt.Fprintln(stderr, "decide requires -action")
		fs.Usage()
		return 2
	}

	input := types.RequestInput{Action: *action, Resource: *resource, Env: *env}
	if len(features) > 0 {
		input.Features = features
	}
	body, err := json.Marshal(input)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpDo(http.DefaultClient, http.MethodPost, *addr+"/v1/decide", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "decide failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var payload struct {
		RunID           string  `json:"run_id"`
		Output          string  `json:"output"`
		Confidence      float64 `json:"confidence"`
		AttestationHash string  `json:"attestation_hash"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	fmt.Fprintf(stdout, "decision=%s confidence=%.2f run_id=%s hash=%s\n", payload.Output, payload.Confidence, payload.RunID, payload.AttestationHash)
	return 0
}

func handleTrail(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("trail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("AXIOM_ADDR", defaultAddr), "gateway address")
	token := fs.String("token", envOrDefault("AXIOM_TOKEN", os.Getenv("AXIOM_DEV_TOKEN")), "bearer token")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	respBody, status, err := httpDo(http.DefaultClient, http.MethodGet, *addr+"/v1/attestations", *token, nil)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "trail failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var payload struct {
		Attestations []types.AttestationRecord `json:"attestations"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	for _, rec := range payload.Attestations {
		fmt.Fprintf(stdout, "hash=%s timestamp=%s strategy=%s\n", rec.Hash, rec.Timestamp, rec.Strategy)
	}
	fmt.Fprintf(stdout, "total=%d\n", len(payload.Attestations))
	return 0
}

func handleVerify(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("AXIOM_ADDR", defaultAddr), "gateway address")
	token := fs.String("token", envOrDefault("AXIOM_TOKEN", os.Getenv("AXIOM_DEV_TOKEN")), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "verify requires <payload_path>")
		fs.Usage()
		return 2
	}

	// #nosec G304 -- path is user-provided on the command line.
	body, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpDo(http.DefaultClient, http.MethodPost, *addr+"/v1/verify", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "verify failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	var payload struct {
		Hash  string `json:"hash"`
		Valid bool   `json:"valid"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	if payload.Valid {
		fmt.Fprintf(stdout, "valid=true hash=%s\n", payload.Hash)
		return 0
	}
	fmt.Fprintf(stdout, "valid=false hash=%s\n", payload.Hash)
	return 1
}

func handleRules(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "lint":
		fs := flag.NewFlagSet("rules lint", flag.ContinueOnError)
		fs.SetOutput(stderr)
		if err := fs.Parse(args[1:]); err != nil {
			fs.Usage()
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "rules lint requires <ruleset_path>")
			fs.Usage()
			return 2
		}
		loaded, err := rules.Load(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		fmt.Fprintf(stdout, "ok ruleset_id=%s ruleset_hash=%s rules=%d\n", loaded.Ruleset.RulesetID, loaded.Hash, len(loaded.Ruleset.Rules))
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func httpDo(client *http.Client, method string, url string, token string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Hybrid CLI

Usage:
  hybrid decide -action ACTION [-resource RES] [-env ENV] [-feature name=value ...] [--addr URL] [--token TOKEN] [--json]
  hybrid trail [--addr URL] [--token TOKEN] [--json]
  hybrid verify <payload_path> [--addr URL] [--token TOKEN]
  hybrid rules lint <ruleset_path>
`)
}
