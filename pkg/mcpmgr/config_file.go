package mcpmgr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configFile is the on-disk layout read by LoadConfigFile:
//
//	servers:
//	  - name: files
//	    command: npx
//	    args: ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
//	    timeout: 10s
type configFile struct {
	Servers []serverEntry `json:"servers" yaml:"servers"`
}

type serverEntry struct {
	ServerConfig `yaml:",inline"`
	// Timeout is a time.ParseDuration string such as "10s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LoadConfigFile reads server configurations from a YAML (.yaml, .yml) or
// JSON (.json) file. Every entry is validated and names must be unique.
func LoadConfigFile(path string) ([]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcpmgr: read config: %w", err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig decodes server configurations. format is a file extension;
// anything other than ".json" is decoded as YAML.
func ParseConfig(data []byte, format string) ([]ServerConfig, error) {
	var file configFile
	switch strings.ToLower(format) {
	case ".json", "json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("mcpmgr: parse config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("mcpmgr: parse config: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(file.Servers))
	cfgs := make([]ServerConfig, 0, len(file.Servers))
	for i, entry := range file.Servers {
		cfg := entry.ServerConfig
		if entry.Timeout != "" {
			d, err := time.ParseDuration(entry.Timeout)
			if err != nil {
				return nil, fmt.Errorf("mcpmgr: servers[%d] timeout: %w", i, err)
			}
			cfg.Timeout = d
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("mcpmgr: servers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("mcpmgr: servers[%d]: duplicate server name %q", i, cfg.Name)
		}
		seen[cfg.Name] = struct{}{}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}
