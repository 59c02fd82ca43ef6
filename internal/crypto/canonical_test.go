package crypto

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCanonicalizeOrdersAndStripsNils(t *testing.T) {
	input := map[string]any{
		"b": "value",
		"a": 1,
		"c": nil,
		"d": map[string]any{
			"z": nil,
			"y": true,
		},
	}

	got, err := Canonicalize(input)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	want := `{"a":1,"b":"value","d":{"y":true}}`
	if string(got) != want {
		t.Fatalf("unexpected canonical json:\n%s\nwant:\n%s", got, want)
	}
}

func TestCanonicalizeKeyOrderIndependent(t *testing.T) {
	first := map[string]any{"decision": "APPROVED", "confidence": 0.3, "reasoning": "anomaly score high"}
	second := map[string]any{"reasoning": "anomaly score high", "confidence": 0.3, "decision": "APPROVED"}

	a, err := Canonicalize(first)
	if err != nil {
		t.Fatalf("canonicalize first: %v", err)
	}
	b, err := Canonicalize(second)
	if err != nil {
		t.Fatalf("canonicalize second: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("key order changed encoding: %s vs %s", a, b)
	}
}

func TestCanonicalizeFloats(t *testing.T) {
	got, err := Canonicalize(map[string]any{"confidence": 0.3, "symbolic_weight": 0.6})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"confidence":0.3,"symbolic_weight":0.6}`
	if string(got) != want {
		t.Fatalf("unexpected canonical json: %s", got)
	}

	// Integral floats collapse to the integer form.
	got, err = Canonicalize(map[string]any{"w": 1.0})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != `{"w":1}` {
		t.Fatalf("unexpected canonical json: %s", got)
	}
}

func TestCanonicalizeRejectsNonFiniteFloat(t *testing.T) {
	if _, err := Canonicalize(math.Inf(1)); err != ErrFloatNotFinite {
		t.Fatalf("expected ErrFloatNotFinite, got %v", err)
	}
	if _, err := Canonicalize(math.NaN()); err != ErrFloatNotFinite {
		t.Fatalf("expected ErrFloatNotFinite, got %v", err)
	}
}

func TestCanonicalizeJSONNumber(t *testing.T) {
	got, err := Canonicalize(json.Number("42"))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != "42" {
		t.Fatalf("unexpected canonical json: %s", got)
	}

	got, err = Canonicalize(json.Number("0.96"))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != "0.96" {
		t.Fatalf("unexpected canonical json: %s", got)
	}

	if _, err := Canonicalize(json.Number("not-a-number")); err != ErrInvalidNumber {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestCanonicalizeNormalizesNFC(t *testing.T) {
	got, err := Canonicalize(map[string]any{"text": "e\u0301"})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	want := "{\"text\":\"\u00e9\"}"
	if string(got) != want {
		t.Fatalf("unexpected canonical json:\n%s\nwant:\n%s", got, want)
	}
}

func TestCanonicalizeMapKeyCollision(t *testing.T) {
	input := map[string]any{
		"e\u0301": 1,
		"\u00e9":  2,
	}

	if _, err := Canonicalize(input); err != ErrKeyCollision {
		t.Fatalf("expected ErrKeyCollision, got %v", err)
	}
}

func TestCanonicalizeNonStringMapKey(t *testing.T) {
	if _, err := Canonicalize(map[int]any{1: "a"}); err != ErrNonStringMapKey {
		t.Fatalf("expected ErrNonStringMapKey, got %v", err)
	}
}

func TestCanonicalizeCoercesUnsupportedType(t *testing.T) {
	type payload struct{ A int }

	got, err := Canonicalize(map[string]any{"p": payload{A: 1}})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != `{"p":"{1}"}` {
		t.Fatalf("unexpected canonical json: %s", got)
	}
}

func TestCanonicalizeCycleDetected(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	if _, err := Canonicalize(m); err != ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestCanonicalizeSlices(t *testing.T) {
	got, err := Canonicalize([]any{1, nil, "a"})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != `[1,null,"a"]` {
		t.Fatalf("unexpected canonical json: %s", got)
	}

	var nilSlice []any
	got, err = Canonicalize(nilSlice)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != "null" {
		t.Fatalf("unexpected canonical json: %s", got)
	}
}
