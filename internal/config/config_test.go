package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	before := cfg
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg != before {
		t.Errorf("Validate changed the defaults: %+v", cfg)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "nope.json")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if cfg != Default() {
			t.Errorf("Load(%q): got %+v, want defaults", path, cfg)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, `{
  "working_height": 800,
  "max_candidates": 8,
  "block_size": 15,
  "output_format": "PDF",
  "pdf_page_size": "Letter",
  "keep_stages": true,
  "log_level": "debug"
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WorkingHeight != 800 || cfg.MaxCandidates != 8 || cfg.BlockSize != 15 {
		t.Errorf("numeric fields not loaded: %+v", cfg)
	}
	if !cfg.KeepStages || cfg.PDFPageSize != "Letter" {
		t.Errorf("fields not loaded: %+v", cfg)
	}
	if f, err := cfg.Format(); err != nil || f != imaging.FormatPDF {
		t.Errorf("Format: got %v, %v", f, err)
	}
	if lvl, err := cfg.Level(); err != nil || lvl != slog.LevelDebug {
		t.Errorf("Level: got %v, %v", lvl, err)
	}
	// Fields absent from the file keep their defaults.
	if cfg.CannyLow != 75 || cfg.Offset != 10 {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"working_height": `},
		{"unknown field", `{"workingHeight": 300}`},
		{"unknown format", `{"output_format": "gif"}`},
		{"unknown level", `{"log_level": "chatty"}`},
		{"unknown page size", `{"pdf_page_size": "Napkin"}`},
		{"bad colour", `{"outline_color": "green"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfigFile(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidate_Clamps(t *testing.T) {
	cfg := Config{
		WorkingHeight:   -10,
		BlurRadius:      -1,
		CannyLow:        90,
		CannyHigh:       20,
		MaxCandidates:   0,
		ApproxTolerance: 3,
		BlockSize:       12,
		JPEGQuality:     400,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	d := Default()
	if cfg.WorkingHeight != d.WorkingHeight {
		t.Errorf("WorkingHeight: got %d", cfg.WorkingHeight)
	}
	if cfg.BlurRadius != d.BlurRadius {
		t.Errorf("BlurRadius: got %v", cfg.BlurRadius)
	}
	if cfg.CannyLow != 90 || cfg.CannyHigh != 200 {
		t.Errorf("Canny: got %v/%v, want 90/200", cfg.CannyLow, cfg.CannyHigh)
	}
	if cfg.MaxCandidates != d.MaxCandidates {
		t.Errorf("MaxCandidates: got %d", cfg.MaxCandidates)
	}
	if cfg.ApproxTolerance != d.ApproxTolerance {
		t.Errorf("ApproxTolerance: got %v", cfg.ApproxTolerance)
	}
	if cfg.BlockSize != 13 {
		t.Errorf("BlockSize: got %d, want next odd size 13", cfg.BlockSize)
	}
	if cfg.JPEGQuality != d.JPEGQuality {
		t.Errorf("JPEGQuality: got %d", cfg.JPEGQuality)
	}
	if cfg.OutputFormat != "png" || cfg.PDFPageSize != "A4" || cfg.LogLevel != "info" {
		t.Errorf("empty names not defaulted: %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DOCSCAN_WORKING_HEIGHT": "640",
		"DOCSCAN_CANNY_HIGH":     "180.5",
		"DOCSCAN_KEEP_STAGES":    "true",
		"DOCSCAN_OUTPUT_FORMAT":  " jpeg ",
		"DOCSCAN_LOG_LEVEL":      "warn",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(lookupIn(env)); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.WorkingHeight != 640 || cfg.CannyHigh != 180.5 || !cfg.KeepStages {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if f, _ := cfg.Format(); f != imaging.FormatJPEG {
		t.Errorf("format: got %v", f)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelWarn {
		t.Errorf("level: got %v", lvl)
	}
	if cfg.BlockSize != 11 {
		t.Errorf("untouched field changed: BlockSize %d", cfg.BlockSize)
	}
}

func TestApplyEnv_BadValues(t *testing.T) {
	env := map[string]string{
		"DOCSCAN_WORKING_HEIGHT": "tall",
		"DOCSCAN_OFFSET":         "ten",
		"DOCSCAN_KEEP_STAGES":    "maybe",
		"DOCSCAN_BLOCK_SIZE":     "21",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(lookupIn(env)); err == nil {
		t.Fatal("expected error for unparseable values")
	}
	if cfg.WorkingHeight != 500 || cfg.Offset != 10 || cfg.KeepStages {
		t.Errorf("bad values should leave fields unchanged: %+v", cfg)
	}
	if cfg.BlockSize != 21 {
		t.Errorf("good values should still apply: BlockSize %d", cfg.BlockSize)
	}
}

func TestEncodeOptions(t *testing.T) {
	cfg := Default()
	cfg.JPEGQuality = 80
	cfg.PDFPageSize = "Letter"

	opts := cfg.EncodeOptions()
	if opts.JPEGQuality != 80 || opts.PDFPageSize != "Letter" {
		t.Errorf("EncodeOptions: got %+v", opts)
	}
}

// Helper functions

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docscan.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func lookupIn(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}
