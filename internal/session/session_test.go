package session

import (
	"testing"
	"time"

	"github.com/datachat/datachat/internal/chartgen"
)

func TestAppendTurnAndHistoryOrder(t *testing.T) {
	session := &Session{ID: "s1"}

	session.AppendTurn(Turn{Role: RoleUser, Content: "first", CreatedAt: time.Now()})
	session.AppendTurn(Turn{Role: RoleAssistant, Content: "second", CreatedAt: time.Now()})
	session.AppendTurn(Turn{Role: RoleUser, Content: "third", CreatedAt: time.Now()})

	history := session.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d", len(history))
	}
	if history[0].Content != "first" || history[2].Content != "third" {
		t.Fatalf("history out of order: %+v", history)
	}

	history[0].Content = "mutated"
	if session.History()[0].Content != "first" {
		t.Fatal("History must return a copy")
	}
}

func TestArtifactReplace(t *testing.T) {
	session := &Session{ID: "s1"}
	if session.Artifact() != nil {
		t.Fatal("new session must have no artifact")
	}

	first := &Artifact{QueryText: "SELECT 1", Columns: []string{"a"}, Rows: [][]any{{int64(1)}}}
	session.SetArtifact(first)
	if session.Artifact() != first {
		t.Fatal("artifact not stored")
	}

	second := &Artifact{
		QueryText: "SELECT 2",
		Columns:   []string{"b"},
		Rows:      [][]any{{int64(2)}},
		Chart:     &chartgen.Spec{Type: chartgen.TypeBar, X: "b", Y: "b"},
	}
	session.SetArtifact(second)
	if session.Artifact() != second {
		t.Fatal("artifact must be replaced wholesale")
	}
}

func TestBeginTurnSerializesSameSession(t *testing.T) {
	session := &Session{ID: "s1"}

	release := session.BeginTurn()

	entered := make(chan struct{})
	go func() {
		innerRelease := session.BeginTurn()
		close(entered)
		innerRelease()
	}()

	select {
	case <-entered:
		t.Fatal("second turn must wait for the first to release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second turn must proceed after release")
	}
}

func TestBeginTurnDoesNotSerializeAcrossSessions(t *testing.T) {
	first := &Session{ID: "s1"}
	second := &Session{ID: "s2"}

	release := first.BeginTurn()
	defer release()

	done := make(chan struct{})
	go func() {
		otherRelease := second.BeginTurn()
		otherRelease()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different sessions must not block each other")
	}
}
