//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joe/pipeview/internal/config"
)

func TestSizeUnitStyleString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		units    config.SizeUnitStyle
		expected string
	}{
		{config.UnitsSI, "si"},
		{config.UnitsIEC, "iec"},
		{config.UnitsBits, "bits"},
		{config.SizeUnitStyle(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.units.String(); got != tt.expected {
			t.Errorf("SizeUnitStyle(%d).String() = %q, want %q", tt.units, got, tt.expected)
		}
	}
}

func TestParseSizeUnitStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected config.SizeUnitStyle
		wantErr  bool
	}{
		{"si", config.UnitsSI, false},
		{"", config.UnitsSI, false},
		{"iec", config.UnitsIEC, false},
		{"IEC", config.UnitsIEC, false},
		{"bits", config.UnitsBits, false},
		{"invalid", config.UnitsSI, true},
	}

	for _, tt := range tests {
		got, err := config.ParseSizeUnitStyle(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSizeUnitStyle(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}

		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseSizeUnitStyle(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSizeUnitStyleUnmarshalText(t *testing.T) {
	t.Parallel()

	var units config.SizeUnitStyle

	if err := units.UnmarshalText([]byte("iec")); err != nil {
		t.Fatalf("UnmarshalText(iec) error = %v", err)
	}

	if units != config.UnitsIEC {
		t.Errorf("UnmarshalText(iec) = %v, want %v", units, config.UnitsIEC)
	}

	if err := units.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText(bogus) expected error, got nil")
	}
}

func TestConfigDescription(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	if desc := cfg.Description(); desc == "" {
		t.Error("Description() should not be empty")
	}
}

func TestConfigVersion(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	if version := cfg.Version(); version == "" {
		t.Error("Version() should not be empty")
	}
}

func TestPostProcessConfig(t *testing.T) {
	t.Parallel()

	tmpFile := filepath.Join(t.TempDir(), "input.dat")
	if err := os.WriteFile(tmpFile, []byte("data"), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{
			name:    "no files - reads from stdin",
			cfg:     config.Config{},
			wantErr: false,
		},
		{
			name:    "existing file",
			cfg:     config.Config{Files: []string{tmpFile}},
			wantErr: false,
		},
		{
			name:    "explicit stdin marker",
			cfg:     config.Config{Files: []string{"-"}},
			wantErr: false,
		},
		{
			name:    "missing file",
			cfg:     config.Config{Files: []string{filepath.Join(t.TempDir(), "missing.dat")}},
			wantErr: true,
		},
		{
			name:    "directory as input",
			cfg:     config.Config{Files: []string{t.TempDir()}},
			wantErr: true,
		},
		{
			name:    "remote sender mode skips input validation",
			cfg:     config.Config{RemotePID: 1234, Files: []string{filepath.Join(t.TempDir(), "missing.dat")}},
			wantErr: false,
		},
		{
			name:    "negative remote pid is rejected",
			cfg:     config.Config{RemotePID: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg

			_, err := config.PostProcessConfig(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("PostProcessConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   []string
		wantErr bool
	}{
		{
			name:    "empty file list is valid",
			files:   nil,
			wantErr: false,
		},
		{
			name:    "dash means stdin",
			files:   []string{"-"},
			wantErr: false,
		},
		{
			name:    "nonexistent path",
			files:   []string{"/nonexistent/path/file.dat"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Config{Files: tt.files}

			err := cfg.ValidateInputs()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
