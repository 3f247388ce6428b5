package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lms-grading-service/internal/domain"
	transport "lms-grading-service/internal/transport/http"
)

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "auth:\n  secret: dev-secret\n  issuer: lms\nlog:\n  level: error\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--user", "42", "--role", "instructor"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(out.String()))
	caller, err := transport.NewAuthenticator("dev-secret", "lms").Caller(req)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if caller.UserID != 42 || caller.Role != domain.RoleInstructor {
		t.Fatalf("unexpected caller %+v", caller)
	}
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", path, "--user", "1"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
}

func TestDemoContentIsGradable(t *testing.T) {
	content := demoContent()
	if len(content.Assessments) == 0 || !content.Assessments[0].Published {
		t.Fatalf("expected a published demo assessment")
	}
	for _, q := range content.Assessments[0].Questions {
		if !q.Type.AutoGradable() {
			continue
		}
		correct := 0
		for _, a := range q.Answers {
			if a.Correct {
				correct++
			}
		}
		if correct != 1 {
			t.Fatalf("question %d: expected one correct option, got %d", q.ID, correct)
		}
	}
}
