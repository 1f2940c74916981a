package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

// FileName is the configuration file looked up next to the model and in the working directory
const FileName = "fabric_interchange.json"

// Config is the top-level configuration for fabric-interchange
type Config struct {
	// Output controls where and how the device document is written
	Output OutputConfig `json:"output,omitempty"`

	// Device holds the fixed names the generator emits or looks for
	Device DeviceConfig `json:"device,omitempty"`

	// Validation controls the contract checks around the build pass
	Validation ValidationConfig `json:"validation,omitempty"`

	// Timing controls per-stage timing output
	Timing TimingConfig `json:"timing,omitempty"`

	// LogLevel is a logrus level name: "debug", "info", "warn", "error"
	LogLevel string `json:"logLevel,omitempty"`
}

// OutputConfig describes the document sink
type OutputConfig struct {
	// Path of the generated document; "~" is expanded
	Path string `json:"path,omitempty"`

	// Compress wraps the encoded document in a gzip stream
	Compress *bool `json:"compress,omitempty"`
}

// DeviceConfig names the reserved wires, cells and bels of the target family
type DeviceConfig struct {
	NullTileType   string `json:"nullTileType,omitempty"`
	TileTypePrefix string `json:"tileTypePrefix,omitempty"`

	VccWire string `json:"vccWire,omitempty"`
	GndWire string `json:"gndWire,omitempty"`

	VccCell      string `json:"vccCell,omitempty"`
	GndCell      string `json:"gndCell,omitempty"`
	ConstCellPin string `json:"constCellPin,omitempty"`

	PadBel string `json:"padBel,omitempty"`

	// LogicSiteType is the site type whose LUT bels get LUT element descriptors
	LogicSiteType string `json:"logicSiteType,omitempty"`
	LUTBelType    string `json:"lutBelType,omitempty"`
	LUTCell       string `json:"lutCell,omitempty"`
}

// ValidationConfig toggles the CUE contract and the OPA integrity audit
type ValidationConfig struct {
	// Schema validates the fabric model and the document against the embedded CUE contracts
	Schema *bool `json:"schema,omitempty"`

	// Audit evaluates the cross-reference integrity policy on the finished document
	Audit bool `json:"audit,omitempty"`

	// PolicyDir holds extra .rego rules for package fabric.integrity
	PolicyDir string `json:"policyDir,omitempty"`
}

// TimingConfig controls stage timing output
type TimingConfig struct {
	// Path of the JSONL timing file; empty disables timing
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns the configuration matching the ECP5/Nexus style naming
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Path:     "device.bin",
			Compress: boolPtr(true),
		},
		Device: DeviceConfig{
			NullTileType:   "NULL",
			TileTypePrefix: "tiletype_",
			VccWire:        "G:VCC",
			GndWire:        "G:GND",
			VccCell:        "VHI",
			GndCell:        "VLO",
			ConstCellPin:   "Z",
			PadBel:         "PAD_B",
			LogicSiteType:  "PLC",
			LUTBelType:     "OXIDE_COMB",
			LUTCell:        "LUT4",
		},
		Validation: ValidationConfig{
			Schema: boolPtr(true),
			Audit:  false,
		},
		LogLevel: "info",
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./fabric_interchange.json (current working directory)
//  2. ./.fabric_interchange.json (current working directory)
//  3. <model dir>/fabric_interchange.json (if different from cwd)
//  4. ~/.config/fabric_interchange/config.json
//
// Returns DefaultConfig if no config file is found
func Load(modelPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, FileName),
		filepath.Join(cwd, "."+FileName),
	}

	if modelPath != "" {
		modelDir := modelPath
		if info, err := os.Stat(modelPath); err == nil && !info.IsDir() {
			modelDir = filepath.Dir(modelPath)
		}
		absDir, _ := filepath.Abs(modelDir)
		if absDir != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(modelDir, FileName),
				filepath.Join(modelDir, "."+FileName),
			)
		}
	}

	if home, err := homedir.Dir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "fabric_interchange", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Output.Path == "" {
		c.Output.Path = def.Output.Path
	}
	if c.Output.Compress == nil {
		c.Output.Compress = boolPtr(true)
	}
	if c.Validation.Schema == nil {
		c.Validation.Schema = boolPtr(true)
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	d := &c.Device
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	fill(&d.NullTileType, def.Device.NullTileType)
	fill(&d.TileTypePrefix, def.Device.TileTypePrefix)
	fill(&d.VccWire, def.Device.VccWire)
	fill(&d.GndWire, def.Device.GndWire)
	fill(&d.VccCell, def.Device.VccCell)
	fill(&d.GndCell, def.Device.GndCell)
	fill(&d.ConstCellPin, def.Device.ConstCellPin)
	fill(&d.PadBel, def.Device.PadBel)
	fill(&d.LogicSiteType, def.Device.LogicSiteType)
	fill(&d.LUTBelType, def.Device.LUTBelType)
	fill(&d.LUTCell, def.Device.LUTCell)
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CompressOutput reports whether the document should be gzip-compressed
func (c *Config) CompressOutput() bool {
	return c.Output.Compress == nil || *c.Output.Compress
}

// SchemaValidation reports whether the CUE contracts are enforced
func (c *Config) SchemaValidation() bool {
	return c.Validation.Schema == nil || *c.Validation.Schema
}

// OutputPath returns the output path with a leading "~" expanded
func (c *Config) OutputPath() (string, error) {
	return homedir.Expand(c.Output.Path)
}
