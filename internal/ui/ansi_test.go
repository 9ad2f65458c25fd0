package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() { SetOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

func TestThemes(t *testing.T) {
	t.Cleanup(func() { SetTheme("classic") })

	SetTheme("MONO")
	if Current().Name != "mono" || Current().SymOK != "ok" {
		t.Fatalf("mono theme not applied: %+v", Current())
	}
	SetTheme("neon")
	if Current().Name != "neon" || Current().Markdown != "dracula" {
		t.Fatalf("neon theme not applied: %+v", Current())
	}
	SetTheme("does-not-exist")
	if Current().Name != "classic" {
		t.Fatalf("unknown theme should fall back to classic, got %q", Current().Name)
	}
}

func TestConsoleHelpers(t *testing.T) {
	SetTheme("mono")
	t.Cleanup(func() { SetTheme("classic") })
	out, errOut := capture(t)

	OK("saved")
	Fail("boom")
	Hint("try again")

	if got := out.String(); !strings.Contains(got, "ok saved") {
		t.Fatalf("stdout=%q", got)
	}
	if got := errOut.String(); !strings.Contains(got, "x boom") || !strings.Contains(got, "try again") {
		t.Fatalf("stderr=%q", got)
	}
}

func TestPanelFramesLines(t *testing.T) {
	SetTheme("mono")
	t.Cleanup(func() { SetTheme("classic") })
	out, _ := capture(t)

	Panel([]string{"first", "second"})
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected border + 2 lines + border, got %q", out.String())
	}
	if !strings.Contains(lines[1], "first") || !strings.Contains(lines[2], "second") {
		t.Fatalf("panel=%q", out.String())
	}
	if lipgloss.Width(lines[0]) != lipgloss.Width(lines[1]) {
		t.Fatalf("ragged panel: %q", out.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); lipgloss.Width(got) > 5 || !strings.HasSuffix(got, "…") {
		t.Fatalf("Truncate=%q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate=%q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Fatalf("Truncate=%q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	SetTheme("mono")
	t.Cleanup(func() { SetTheme("classic") })

	if got := RenderMarkdown("   ", 40); got != "" {
		t.Fatalf("blank description rendered as %q", got)
	}
	if got := RenderMarkdown("**two** litres", 40); !strings.Contains(got, "two") || !strings.Contains(got, "litres") {
		t.Fatalf("RenderMarkdown=%q", got)
	}
}
