package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

func writeChain(t *testing.T, path string, n int) {
	t.Helper()
	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		log.Append(FromEvent(testEvent(model.EventCommandBlocked, "book"), ""))
	}
	log.Close()
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	writeChain(t, path, 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Alter the middle entry's payload without fixing the chain.
	tampered := strings.Replace(string(data), `"command":"book"`, `"command":"safe"`, 2)
	if tampered == string(data) {
		t.Fatal("tamper replacement did not apply")
	}
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("tampered log verified as valid")
	}
	if result.ErrorLine == 0 {
		t.Error("error line not reported")
	}
}

func TestVerifyDetectsBadGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	entry := `{"ts":"2026-08-30T10:00:00.000Z","id":"x","kind":"auto_pause","level":"HIGHWAY","prev_hash":"sha256:deadbeef"}` + "\n"
	if err := os.WriteFile(path, []byte(entry), 0600); err != nil {
		t.Fatal(err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("bad genesis hash verified as valid")
	}
	if result.ErrorLine != 1 {
		t.Errorf("expected error at line 1, got %d", result.ErrorLine)
	}
}

func TestVerifyEmptyLogIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	result := Verify(path)
	if !result.Valid || result.Lines != 0 {
		t.Errorf("empty log: got valid=%v lines=%d", result.Valid, result.Lines)
	}
}
