package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var generated = time.Date(2026, time.October, 16, 14, 2, 0, 0, time.UTC)

func TestWriteTo(t *testing.T) {
	m := New("img/characters", generated)
	m.Add(
		Entry{Document: "bob", Variant: "default", File: "bob_default.png", YAnchor: 1},
		Entry{Document: "alice", Variant: "sad", File: "alice_sad.png", YAnchor: 0.95},
		Entry{Document: "alice", Variant: "happy", File: "alice_happy.png", YAnchor: 0.95},
	)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	want := `# This file was autogenerated on Fri, Oct 16 2026, 14:02 by psdemiurge. Manual changes will be lost.
# alice
image alice happy = Image("img/characters/alice/alice_happy.png", yanchor=0.95)
image alice sad = Image("img/characters/alice/alice_sad.png", yanchor=0.95)
# bob
image bob default = Image("img/characters/bob/bob_default.png", yanchor=1.00)
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteTo() mismatch (-want +got):\n%s", diff)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestWriteToEmpty(t *testing.T) {
	var buf bytes.Buffer
	if _, err := New("", generated).WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 1 {
		t.Errorf("empty manifest has %d lines, want header only", got)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script", "characters.rpy")
	m := New("img", generated)
	m.Add(Entry{Document: "carol", Variant: "angry", File: "carol_angry.png", YAnchor: 0.5})

	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`image carol angry = Image("img/carol/carol_angry.png", yanchor=0.50)`)) {
		t.Errorf("saved manifest missing entry:\n%s", data)
	}
}
