// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package permissions

import (
	"fmt"
	"time"
)

// Preset names a permission security level.
type Preset string

const (
	// PresetStrict requires approval for medium risk and above.
	PresetStrict Preset = "strict"

	// PresetModerate requires approval for high risk and above.
	PresetModerate Preset = "moderate"

	// PresetRelaxed requires approval for critical operations only.
	PresetRelaxed Preset = "relaxed"
)

// Override forces a decision for a specific tool regardless of risk.
type Override string

const (
	OverrideAllow   Override = "allow"
	OverrideDeny    Override = "deny"
	OverrideApprove Override = "approve"
)

// PresetConfig captures the policy a preset applies.
type PresetConfig struct {
	Name        Preset
	Description string

	// ApprovalThreshold is the lowest risk level that requires approval.
	ApprovalThreshold RiskLevel

	// ToolOverrides force a decision per tool, checked before risk.
	ToolOverrides map[string]Override

	// ApprovalTimeout bounds how long an approval request may wait.
	ApprovalTimeout time.Duration

	// LogAllOperations controls whether allowed calls are audited too.
	LogAllOperations bool
}

var presetConfigs = map[Preset]PresetConfig{
	PresetStrict: {
		Name:              PresetStrict,
		Description:       "Maximum security - requires approval for most operations",
		ApprovalThreshold: RiskMedium,
		ToolOverrides: map[string]Override{
			"write_file":         OverrideApprove,
			"execute_command":    OverrideApprove,
			"background_command": OverrideApprove,
		},
		ApprovalTimeout:  5 * time.Minute,
		LogAllOperations: true,
	},
	PresetModerate: {
		Name:              PresetModerate,
		Description:       "Balanced security - requires approval for sensitive operations",
		ApprovalThreshold: RiskHigh,
		ToolOverrides: map[string]Override{
			"execute_command":    OverrideApprove,
			"background_command": OverrideApprove,
		},
		ApprovalTimeout:  3 * time.Minute,
		LogAllOperations: true,
	},
	PresetRelaxed: {
		Name:              PresetRelaxed,
		Description:       "Minimal friction - only gates critical operations",
		ApprovalThreshold: RiskCritical,
		ToolOverrides:     map[string]Override{},
		ApprovalTimeout:   2 * time.Minute,
		LogAllOperations:  false,
	},
}

// PresetConfigFor returns the configuration for a named preset.
func PresetConfigFor(p Preset) (PresetConfig, error) {
	cfg, ok := presetConfigs[p]
	if !ok {
		return PresetConfig{}, fmt.Errorf("unknown permission preset %q", p)
	}
	// Copy the override map so callers cannot mutate the shared config.
	overrides := make(map[string]Override, len(cfg.ToolOverrides))
	for k, v := range cfg.ToolOverrides {
		overrides[k] = v
	}
	cfg.ToolOverrides = overrides
	return cfg, nil
}

// Presets returns the known preset names.
func Presets() []Preset {
	return []Preset{PresetStrict, PresetModerate, PresetRelaxed}
}
