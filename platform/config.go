package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/set-io/nbctl/platform/smi"
)

const DefaultConfigPath = "/etc/nbctl/config.json"

type Config struct {
	// Class is a class name, or "auto" to look the model up in DMI.
	Class        string          `json:"class"`
	Bridges      []smi.BridgeID  `json:"bridges,omitempty"`
	NativeEC     bool            `json:"native_ec"`
	NativeECPath string          `json:"native_ec_path,omitempty"`
	Features     map[string]bool `json:"features,omitempty"`
	Debug        bool            `json:"debug,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Class:    "auto",
		NativeEC: true,
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error
// when missingOK is set.
func LoadConfig(path string, missingOK bool) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if missingOK && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Class != "" && c.Class != "auto" {
		if _, err := ParseClass(c.Class); err != nil {
			return err
		}
	}
	for _, b := range c.Bridges {
		if !smi.Supported(b.Vendor) {
			return fmt.Errorf("bridge %04x:%04x: vendor not supported", b.Vendor, b.Device)
		}
	}
	for name := range c.Features {
		if _, ok := lookupFeature(name); !ok {
			return fmt.Errorf("%q: %w", name, ErrUnknownFeature)
		}
	}
	return nil
}

func (c *Config) bridges() []smi.BridgeID {
	if len(c.Bridges) > 0 {
		return c.Bridges
	}
	return smi.DefaultBridges
}

func (c *Config) enabled(f *feature) bool {
	if on, ok := c.Features[f.name]; ok {
		return on
	}
	return !f.off
}

func (c *Config) class() (HardwareClass, error) {
	if c.Class != "" && c.Class != "auto" {
		return ParseClass(c.Class)
	}
	product, err := readDMIProduct()
	if err != nil {
		return ClassNone, fmt.Errorf("%w: %v", ErrNotDetected, err)
	}
	class, ok := DetectClass(product)
	if !ok {
		return ClassNone, fmt.Errorf("%q: %w", product, ErrNotDetected)
	}
	return class, nil
}
