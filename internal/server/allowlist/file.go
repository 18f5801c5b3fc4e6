package allowlist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk allow-list format:
//
//	emails:
//	  - ana@example.com
//	  - bo@example.com
type File struct {
	Emails []string `yaml:"emails"`
}

// LoadFile reads a YAML allow-list. An empty path yields no emails.
func LoadFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse allow-list %s: %w", path, err)
	}
	return f.Emails, nil
}
