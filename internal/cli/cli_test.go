package cli

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/mahirjain10/imagsharp/internal/resolver"
	"github.com/mahirjain10/imagsharp/internal/transformation"
)

func fixture(t *testing.T, root, rel string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 24, 12))
	for x := 0; x < 24; x++ {
		img.Set(x, x%12, color.NRGBA{R: 255, A: 255})
	}
	if err := imaging.Save(img, p); err != nil {
		t.Fatal(err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("1.2.3")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 80},
		{"abc", 80},
		{"0", 0},
		{"50", 50},
		{"100", 100},
		{" 75 ", 75},
		{"150", 150},
		{"-5", -5},
		{"50abc", 50},
		{"12.5", 12},
		{"+30", 30},
		{"-", 80},
		{"q50", 80},
	}
	for _, tt := range tests {
		if got := ParseQuality(tt.in); got != tt.want {
			t.Errorf("ParseQuality(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"wide", 0},
		{"-10", 0},
		{"640", 640},
		{"640px", 640},
		{"px640", 0},
	}
	for _, tt := range tests {
		if got := ParseWidth(tt.in); got != tt.want {
			t.Errorf("ParseWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(".WebP"); err != nil || f != "webp" {
		t.Errorf("ParseFormat(.WebP) = %q, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != "" {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, transformation.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "-v")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("Expected version output, got %q", out)
	}
}

func TestRunScenarioFiles(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	fixture(t, root, "photos/a.png")
	fixture(t, root, "photos/sub/b.jpg")

	out, err := execute(t, "./photos/a.png", "./photos/sub/b.jpg", "-d", "./out")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "imagsharp successful!") || !strings.Contains(out, "converted: 2") {
		t.Errorf("Unexpected output %q", out)
	}

	for _, rel := range []string{"out/a.png", "out/sub/b.jpg"} {
		meta, err := transformation.Probe(filepath.Join(root, rel))
		if err != nil {
			t.Errorf("Expected %s: %v", rel, err)
			continue
		}
		if meta.Width != 24 {
			t.Errorf("%s: expected native width 24, got %d", rel, meta.Width)
		}
	}
}

func TestRunScenarioDirectoryWebP(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	fixture(t, root, "photos/a.png")
	fixture(t, root, "photos/sub/b.jpg")

	if _, err := execute(t, "./photos", "-f", "webp", "-q", "50", "--dest", "out", "-w", "12"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, rel := range []string{"out/a.webp", "out/sub/b.webp"} {
		meta, err := transformation.Probe(filepath.Join(root, rel))
		if err != nil {
			t.Errorf("Expected %s: %v", rel, err)
			continue
		}
		if meta.Width != 12 || meta.Height != 6 {
			t.Errorf("%s: expected 12x6, got %dx%d", rel, meta.Width, meta.Height)
		}
	}
}

func TestRunPartialFailureStillSucceeds(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	fixture(t, root, "in/good.png")
	if err := os.WriteFile(filepath.Join(root, "in", "bad.png"), []byte("broken"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "in", "-d", "out")
	if err != nil {
		t.Fatalf("Partial failures must not fail the run: %v", err)
	}
	if !strings.Contains(out, "failed: 1") || !strings.Contains(out, "bad.png") {
		t.Errorf("Expected failure in summary, got %q", out)
	}
}

func TestRunCustomExtensions(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	fixture(t, root, "in/a.png")
	fixture(t, root, "in/b.jpg")

	out, err := execute(t, "in", "-d", "out", "-e", "jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "converted: 1") {
		t.Errorf("Expected only the jpg to be converted, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "a.png")); !os.IsNotExist(err) {
		t.Error("Expected png to be ignored")
	}
}

func TestRunConfigFile(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	fixture(t, root, "in/a.png")
	cfgPath := filepath.Join(root, "imagsharp.yaml")
	if err := os.WriteFile(cfgPath, []byte("dest: from-config\nformat: gif\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "in", "-c", cfgPath); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "from-config", "a.gif")); err != nil {
		t.Errorf("Expected config file settings to apply: %v", err)
	}

	// Flags win over the config file.
	if _, err := execute(t, "in", "-c", cfgPath, "-f", "jpg"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "from-config", "a.jpg")); err != nil {
		t.Errorf("Expected flag to override config format: %v", err)
	}
}

func TestRunPreflightErrors(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	fixture(t, root, "in/a.png")

	if _, err := execute(t); !errors.Is(err, resolver.ErrInvalidInput) || !IsInputError(err) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := execute(t, "missing/*.png"); !errors.Is(err, resolver.ErrNoSources) {
		t.Errorf("Expected ErrNoSources, got %v", err)
	}
	if _, err := execute(t, "in", "-f", "pdf"); !errors.Is(err, transformation.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := execute(t, "in", "--workers", "0"); err == nil {
		t.Error("Expected invalid worker count to fail")
	}
	if _, err := os.Stat(filepath.Join(root, "imagsharp-dest")); !os.IsNotExist(err) {
		t.Error("Pre-flight failures must not create the destination")
	}
}
