// Package config loads environment-level settings: the knobs a CI system
// sets once per runner rather than per invocation.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const namespace = "LABGATE"

// Env holds environment overrides. Flags with the same meaning win over
// these values.
type Env struct {
	HistoryPath  string `envconfig:"HISTORY_PATH" default:".labgate/history.db"`
	BranchPrefix string `envconfig:"BRANCH_PREFIX" default:"submit/"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadEnv reads LABGATE_* variables, applying defaults for anything unset.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}
