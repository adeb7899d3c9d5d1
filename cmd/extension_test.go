package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("extensions are shell scripts in this test")
	}
	tempDir := t.TempDir()
	out := filepath.Join(tempDir, "out.txt")

	// btctax-hello writes its environment and arguments to the file given as first argument.
	script := "#!/bin/sh\nprintf '%s|%s|%s\\n' \"$BTCTAX_LEDGER\" \"$BTCTAX_BASIS\" \"$2\" > \"$1\"\nexit 3\n"
	if err := os.WriteFile(filepath.Join(tempDir, "btctax-hello"), []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to write btctax-hello: %v", err)
	}
	t.Setenv("PATH", tempDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("BTCTAX_LEDGER", "")

	oldLedger, oldBasis := *ledgerFile, *basis
	*ledgerFile, *basis = "my-ledger.jsonl", "zero"
	defer func() { *ledgerFile, *basis = oldLedger, oldBasis }()

	found, code := RunExtension("hello", []string{out, "world"})
	if !found {
		t.Fatal("RunExtension(hello) did not find btctax-hello")
	}
	if code != 3 {
		t.Errorf("RunExtension(hello) exit code = %d, want 3", code)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("btctax-hello did not run: %v", err)
	}
	if want := "my-ledger.jsonl|zero|world"; strings.TrimSpace(string(got)) != want {
		t.Errorf("btctax-hello saw %q, want %q", strings.TrimSpace(string(got)), want)
	}

	if found, _ := RunExtension("does-not-exist", nil); found {
		t.Error("RunExtension(does-not-exist) found an extension")
	}
}
