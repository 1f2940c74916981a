package fabric

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Load reads a fabric model from a JSON or YAML file
func Load(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fabric model: %w", err)
	}
	dev, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dev, nil
}

// Parse decodes a fabric model. YAML is accepted as well as JSON; field names
// follow the json tags either way. Unknown fields are rejected.
func Parse(data []byte) (*Device, error) {
	var dev Device
	if err := yaml.UnmarshalStrict(data, &dev); err != nil {
		return nil, fmt.Errorf("parsing fabric model: %w", err)
	}
	return &dev, nil
}
