/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicyFileName is the optional per-repository sandbox policy file,
// read from the workspace root.
const PolicyFileName = ".octoforge.yaml"

// Policy bounds what tool execution may do inside a workspace.
type Policy struct {
	// AllowedCommands lists the command basenames run_command may spawn.
	AllowedCommands []string `yaml:"allowed_commands"`

	// CommandTimeout is the hard wall-clock limit for one command.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// MaxOutputBytes truncates combined stdout/stderr beyond this size.
	MaxOutputBytes int `yaml:"max_output_bytes"`

	// MaxSearchMatches caps how many matches a single search returns.
	MaxSearchMatches int `yaml:"max_search_matches"`

	// SkipDirs are directory names excluded from search and file trees.
	SkipDirs []string `yaml:"skip_dirs"`
}

// DefaultPolicy returns the sandbox defaults used when a repository does
// not carry its own policy file.
func DefaultPolicy() Policy {
	return Policy{
		AllowedCommands: []string{
			"go", "gofmt", "python", "python3", "pytest", "pip",
			"npm", "npx", "node", "yarn",
			"make", "cargo", "mvn", "gradle",
			"git", "ls", "cat", "head", "tail", "wc", "grep", "find", "diff", "echo",
		},
		CommandTimeout:   2 * time.Minute,
		MaxOutputBytes:   64 * 1024,
		MaxSearchMatches: 50,
		SkipDirs: []string{
			".git", "node_modules", "vendor", "dist", "build",
			"__pycache__", ".venv", "venv", ".pytest_cache", "target",
		},
	}
}

// Validate checks that the policy has usable values.
func (p Policy) Validate() error {
	if p.CommandTimeout <= 0 {
		return errors.New("command timeout must be positive")
	}
	if p.MaxOutputBytes <= 0 {
		return errors.New("max output bytes must be positive")
	}
	if p.MaxSearchMatches <= 0 {
		return errors.New("max search matches must be positive")
	}
	return nil
}

// Allows reports whether the policy permits spawning the given command.
// Matching is by basename so "/usr/bin/go" and "go" are equivalent.
func (p Policy) Allows(command string) bool {
	base := filepath.Base(command)
	for _, allowed := range p.AllowedCommands {
		if base == allowed {
			return true
		}
	}
	return false
}

func (p Policy) skips(dirName string) bool {
	for _, d := range p.SkipDirs {
		if dirName == d {
			return true
		}
	}
	return false
}

// LoadPolicy reads the policy file from the checkout root, merging it
// over the defaults. A missing file yields the defaults; a malformed
// file is an error so a repository cannot silently widen the sandbox.
func LoadPolicy(root string) (Policy, error) {
	policy := DefaultPolicy()

	data, err := os.ReadFile(filepath.Join(root, PolicyFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return policy, nil
		}
		return policy, fmt.Errorf("reading %s: %w", PolicyFileName, err)
	}

	var overlay Policy
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return policy, fmt.Errorf("parsing %s: %w", PolicyFileName, err)
	}

	if len(overlay.AllowedCommands) > 0 {
		policy.AllowedCommands = overlay.AllowedCommands
	}
	if overlay.CommandTimeout > 0 {
		policy.CommandTimeout = overlay.CommandTimeout
	}
	if overlay.MaxOutputBytes > 0 {
		policy.MaxOutputBytes = overlay.MaxOutputBytes
	}
	if overlay.MaxSearchMatches > 0 {
		policy.MaxSearchMatches = overlay.MaxSearchMatches
	}
	if len(overlay.SkipDirs) > 0 {
		policy.SkipDirs = overlay.SkipDirs
	}

	return policy, policy.Validate()
}
