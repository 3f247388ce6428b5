package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", ErrAlreadySubmitted)

	if !errors.Is(wrapped, ErrInvalidState) {
		t.Fatalf("expected invalid state kind, got %v", wrapped)
	}
	if !errors.Is(wrapped, ErrAlreadySubmitted) {
		t.Fatalf("expected exact sentinel match")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("did not expect not found kind")
	}
	if errors.Is(ErrAttemptNotFound, ErrNoActiveAttempt) {
		t.Fatalf("distinct reasons of the same kind must not match each other")
	}
	if got := KindOf(wrapped); got != KindInvalidState {
		t.Fatalf("expected %s, got %s", KindInvalidState, got)
	}
	if got := KindOf(errors.New("boom")); got != "" {
		t.Fatalf("expected unclassified error, got %s", got)
	}
	if wrapped.Error() != "submit: assessment already submitted" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestParseQuestionType(t *testing.T) {
	for raw, want := range map[string]QuestionType{
		"mcq":          MultipleChoice,
		"true_false":   TrueFalse,
		"short_answer": ShortAnswer,
	} {
		got, err := ParseQuestionType(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want || got.String() != raw {
			t.Fatalf("parse %q: got %v", raw, got)
		}
	}

	if _, err := ParseQuestionType("essay"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !MultipleChoice.AutoGradable() || !TrueFalse.AutoGradable() || ShortAnswer.AutoGradable() {
		t.Fatalf("unexpected auto-gradable classification")
	}
}

func TestQuestionTypeJSON(t *testing.T) {
	raw, err := json.Marshal(Question{ID: 1, Type: TrueFalse})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.Type != TrueFalse {
		t.Fatalf("expected true_false, got %v", q.Type)
	}

	if err := json.Unmarshal([]byte(`{"type":"essay"}`), &q); err == nil {
		t.Fatalf("expected unknown type to fail")
	}
}

func TestCompletionPercentage(t *testing.T) {
	if CompletionPercentage(0, 0) != 0 {
		t.Fatalf("empty scope must be 0")
	}
	if CompletionPercentage(3, 3) != 100 {
		t.Fatalf("full scope must be 100")
	}
	if CompletionPercentage(1, 4) != 25 {
		t.Fatalf("expected 25")
	}
	prev := 0.0
	for done := 0; done <= 7; done++ {
		cur := CompletionPercentage(done, 7)
		if cur < prev {
			t.Fatalf("percentage decreased at %d", done)
		}
		prev = cur
	}
}
