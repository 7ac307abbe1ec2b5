package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SettingsSeed 初始站台設定，只補 DB 內不存在的 key
type SettingsSeed struct {
	Settings map[string]string `yaml:"settings"`
}

func LoadSettingsSeed(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings seed file: %w", err)
	}
	return ParseSettingsSeed(data)
}

func ParseSettingsSeed(data []byte) (map[string]string, error) {
	var seed SettingsSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse settings seed: %w", err)
	}
	if seed.Settings == nil {
		seed.Settings = map[string]string{}
	}
	return seed.Settings, nil
}
