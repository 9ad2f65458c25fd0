package jsonstore

import (
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	Token string `json:"token"`
}

func TestSaveLoadRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "creds.json")

	var r record
	found, err := Load(path, &r)
	if err != nil || found {
		t.Fatalf("Load missing: found=%v err=%v", found, err)
	}

	if err := Save(path, record{Token: "abc"}, 0o600); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%v, want 0600", fi.Mode().Perm())
	}

	found, err = Load(path, &r)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if r.Token != "abc" {
		t.Fatalf("token=%q", r.Token)
	}

	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := Remove(path); err != nil {
		t.Fatalf("Remove twice: %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	var r record
	if _, err := Load(path, &r); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
