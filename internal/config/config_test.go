package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Device.NullTileType != "NULL" || cfg.Device.TileTypePrefix != "tiletype_" {
		t.Fatalf("unexpected tile type naming %+v", cfg.Device)
	}
	if cfg.Device.GndCell != "VLO" || cfg.Device.VccCell != "VHI" || cfg.Device.ConstCellPin != "Z" {
		t.Fatalf("unexpected constant cells %+v", cfg.Device)
	}
	if !cfg.CompressOutput() || !cfg.SchemaValidation() || cfg.Validation.Audit {
		t.Fatalf("expected compression and schema validation on, audit off")
	}
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	data := `{
		"output": {"path": "out/lifcl.bin", "compress": false},
		"device": {"padBel": "PAD"},
		"validation": {"audit": true}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Output.Path != "out/lifcl.bin" || cfg.CompressOutput() {
		t.Fatalf("expected explicit output settings, got %+v", cfg.Output)
	}
	if cfg.Device.PadBel != "PAD" {
		t.Fatalf("expected padBel override, got %q", cfg.Device.PadBel)
	}
	if cfg.Device.LogicSiteType != "PLC" || cfg.Device.VccWire != "G:VCC" {
		t.Fatalf("expected defaults for unset names, got %+v", cfg.Device)
	}
	if !cfg.SchemaValidation() || !cfg.Validation.Audit {
		t.Fatalf("expected schema default on and audit on")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestLoadFindsConfigNextToModel(t *testing.T) {
	modelDir := t.TempDir()
	model := filepath.Join(modelDir, "lifcl.yaml")
	if err := os.WriteFile(model, []byte("name: x\n"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Output.Path = "next-to-model.bin"
	if err := cfg.Save(filepath.Join(modelDir, FileName)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// run from an unrelated directory so the cwd lookup misses
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)

	loaded, err := Load(model)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Output.Path != "next-to-model.bin" {
		t.Fatalf("expected config next to model, got %q", loaded.Output.Path)
	}
}

func TestLoadFileRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
