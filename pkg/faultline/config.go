// config.go loads client options from a YAML file.

package faultline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// optionsFile is the on-disk shape of a client configuration.
type optionsFile struct {
	DSN               string   `yaml:"dsn"`
	Release           string   `yaml:"release"`
	Environment       string   `yaml:"environment"`
	ServerName        string   `yaml:"server_name"`
	InAppInclude      []string `yaml:"in_app_include"`
	InAppExclude      []string `yaml:"in_app_exclude"`
	ExtraBorderFrames []string `yaml:"extra_border_frames"`
	MaxBreadcrumbs    *int     `yaml:"max_breadcrumbs"`
	TrimBacktraces    *bool    `yaml:"trim_backtraces"`
}

// LoadOptionsFile reads client options from a YAML file. Absent keys keep
// their defaults; an absent dsn key yields options for a disabled client
// unless the environment provides one.
func LoadOptionsFile(path string) (ClientOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientOptions{}, fmt.Errorf("read options file: %w", err)
	}

	var file optionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ClientOptions{}, fmt.Errorf("parse options file %s: %w", path, err)
	}

	options := ClientOptions{
		DSN:               file.DSN,
		Release:           file.Release,
		Environment:       file.Environment,
		ServerName:        file.ServerName,
		InAppInclude:      file.InAppInclude,
		InAppExclude:      file.InAppExclude,
		ExtraBorderFrames: file.ExtraBorderFrames,
	}
	if file.MaxBreadcrumbs != nil {
		options.MaxBreadcrumbs = *file.MaxBreadcrumbs
		if options.MaxBreadcrumbs == 0 {
			options.MaxBreadcrumbs = -1 // explicit zero in the file disables
		}
	}
	if file.TrimBacktraces != nil {
		options.DisableBacktraceTrimming = !*file.TrimBacktraces
	}
	return options, nil
}
