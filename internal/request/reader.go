package request

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Write writes a movie request to a YAML file.
func Write(movie *Movie, path string) error {
	data, err := yaml.Marshal(movie)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read reads a movie request from a YAML file.
func Read(path string) (*Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var movie Movie
	if err := yaml.Unmarshal(data, &movie); err != nil {
		return nil, fmt.Errorf("malformed movie request %s: %w", path, err)
	}
	return &movie, nil
}
