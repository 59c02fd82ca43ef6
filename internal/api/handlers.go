// Package api is the HTTP surface of the decision gateway. Handlers return
// errors as JSON; a request that cannot be decided never gets a best-effort
// decision.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/axiomhive/hybrid/internal/attest"
	"github.com/axiomhive/hybrid/internal/auth"
	"github.com/axiomhive/hybrid/internal/grade"
	"github.com/axiomhive/hybrid/internal/ledger"
	"github.com/axiomhive/hybrid/internal/pipeline"
	"github.com/axiomhive/hybrid/pkg/types"
)

type Handler struct {
	Auth     auth.Authenticator
	Pipeline *pipeline.Service
	Attestor *attest.Engine
	Store    ledger.Store
}

// nowFn is a test seam for the decision timestamp.
var nowFn = func() string { return time.Now().UTC().Format(time.RFC3339) }

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Pipeline == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "pipeline not configured"})
		return
	}

	var input types.RequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	out, err := h.Pipeline.Process(input, nowFn())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Attestations(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Store == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "ledger not configured"})
		return
	}

	recs, err := h.Store.ListAttestations()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"attestations": recs})
}

// VerifyRequest echoes the payload shape an attestation was generated from.
// Numbers decode via json.Number so 1 and 1.5 survive as written.
type VerifyRequest struct {
	Output    any            `json:"output"`
	Hash      string         `json:"hash"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp string         `json:"timestamp"`
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Attestor == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "attestation engine not configured"})
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req VerifyRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Hash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing hash"})
		return
	}

	valid, err := h.Attestor.Verify(req.Output, req.Hash, req.Metadata, req.Timestamp)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"hash": req.Hash, "valid": valid})
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Store == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "ledger not configured"})
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if runID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing run_id"})
		return
	}

	run, ok := h.Store.GetRun(runID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	result := grade.Evaluate(grade.Input{Attested: h.attested(run), Run: run})

	var body json.RawMessage = run.BodyJSON
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":           run.RunID,
		"created_at":       run.CreatedAt,
		"mode":             run.Mode,
		"decision":         run.Decision,
		"attestation_hash": run.AttestationHash,
		"body":             body,
		"grade":            result.Grade,
		"grade_reasons":    result.Reasons,
	})
}

// attested reports whether the run's hash appears in the append-only
// attestation log.
func (h *Handler) attested(run ledger.RunRecord) bool {
	recs, err := h.Store.ListAttestations()
	if err != nil {
		return false
	}
	for _, rec := range recs {
		if rec.Hash == run.AttestationHash {
			return true
		}
	}
	return false
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.Auth.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
