package repoentry

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseManifestRoundTrip(t *testing.T) {
	entries := []Entry{
		{CheckoutPath: "b", Revision: "c2", RemoteURL: "R2"},
		{CheckoutPath: "a", Revision: "c1", RemoteURL: "R1", Message: "note"},
	}

	data, err := EmitManifest(entries)
	if err != nil {
		t.Fatalf("EmitManifest failed: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Errorf("expected trailing newline, got %q", data)
	}

	parsed, err := ParseManifest(data, "wit-workspace.json")
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if len(parsed) != 2 || parsed[0].CheckoutPath != "b" || parsed[1].CheckoutPath != "a" {
		t.Fatalf("expected insertion order b,a to be preserved, got %+v", parsed)
	}
	if parsed[1].Message != "note" {
		t.Errorf("expected message to round-trip, got %q", parsed[1].Message)
	}
}

func TestEmitManifestStableBytes(t *testing.T) {
	entries := []Entry{
		{CheckoutPath: "z", Revision: "c1", RemoteURL: "R"},
		{CheckoutPath: "a", Revision: "c2", RemoteURL: "R"},
	}
	first, err := EmitManifest(entries)
	if err != nil {
		t.Fatalf("EmitManifest failed: %v", err)
	}
	second, err := EmitManifest(entries)
	if err != nil {
		t.Fatalf("EmitManifest failed: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("re-emit produced different bytes:\n%s\nvs\n%s", first, second)
	}
}

func TestParseManifestDuplicateNames(t *testing.T) {
	data := []byte(`[
		{"name": "a", "commit": "c1", "source": "R"},
		{"name": "a", "commit": "c2", "source": "R"}
	]`)
	_, err := ParseManifest(data, "wit-workspace.json")
	if err == nil {
		t.Fatal("expected duplicate-name error")
	}
	var dup *DuplicateNameError
	if !asDuplicate(err, &dup) {
		t.Fatalf("expected *DuplicateNameError, got %T: %v", err, err)
	}
	if len(dup.Names) != 1 || dup.Names[0] != "a" {
		t.Errorf("expected duplicate name 'a', got %v", dup.Names)
	}
}

func asDuplicate(err error, target **DuplicateNameError) bool {
	if d, ok := err.(*DuplicateNameError); ok {
		*target = d
		return true
	}
	return false
}

func TestParseManifestMalformed(t *testing.T) {
	_, err := ParseManifest([]byte("not json"), "wit-workspace.json")
	if err == nil {
		t.Fatal("expected format error")
	}
	var fe *FormatError
	if !asFormat(err, &fe) {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	if fe.Path != "wit-workspace.json" {
		t.Errorf("expected path to be recorded, got %q", fe.Path)
	}
}

func asFormat(err error, target **FormatError) bool {
	if f, ok := err.(*FormatError); ok {
		*target = f
		return true
	}
	return false
}

func TestLockRoundTrip(t *testing.T) {
	entries := []Entry{
		{CheckoutPath: "r", Revision: "c2", RemoteURL: "R"},
	}
	data, err := EmitLock(entries)
	if err != nil {
		t.Fatalf("EmitLock failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("lock output is not valid JSON: %v", err)
	}
	if _, ok := raw["r"]; !ok {
		t.Fatalf("expected key 'r' in lock output: %s", data)
	}

	parsed, err := ParseLock(data, "wit-lock.json")
	if err != nil {
		t.Fatalf("ParseLock failed: %v", err)
	}
	if len(parsed) != 1 || parsed[0].CheckoutPath != "r" || parsed[0].Revision != "c2" {
		t.Fatalf("unexpected round-trip result: %+v", parsed)
	}
}

func TestLockKeyNameMismatch(t *testing.T) {
	data := []byte(`{"r": {"name": "other", "commit": "c1", "source": "R"}}`)
	_, err := ParseLock(data, "wit-lock.json")
	if err == nil {
		t.Fatal("expected format error on key/name mismatch")
	}
}

func TestEmptyLockIsEmptyObject(t *testing.T) {
	data, err := EmitLock(nil)
	if err != nil {
		t.Fatalf("EmitLock failed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "{}" {
		t.Errorf("expected empty lock to serialize as {}, got %q", data)
	}
}
