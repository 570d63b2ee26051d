// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package permissions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emperor-ai/emperor/pkg/errors"
)

// Result is the outcome of a permission check.
type Result struct {
	Allowed          bool
	RiskLevel        RiskLevel
	Reason           string
	RequiresApproval bool
}

// ApprovalRequest describes a pending approval.
type ApprovalRequest struct {
	Agent string
	Tool  string
	Input map[string]any
	Risk  RiskLevel
}

// ApprovalFunc decides an approval request. Implementations should honor
// the context deadline; the manager applies the preset's approval timeout.
type ApprovalFunc func(ctx context.Context, req ApprovalRequest) (bool, error)

// Manager applies a permission preset to tool invocations and records the
// decisions in the audit store.
type Manager struct {
	preset     PresetConfig
	classifier *Classifier
	audit      AuditStore
	approve    ApprovalFunc
	logger     *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithAuditStore sets the audit backend. Defaults to NoopAuditStore.
func WithAuditStore(store AuditStore) ManagerOption {
	return func(m *Manager) {
		if store != nil {
			m.audit = store
		}
	}
}

// WithApprovalFunc sets the approval callback. Without one, operations
// that require approval are denied.
func WithApprovalFunc(fn ApprovalFunc) ManagerOption {
	return func(m *Manager) { m.approve = fn }
}

// WithApprovalTimeout overrides the preset's approval timeout.
func WithApprovalTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.preset.ApprovalTimeout = d
		}
	}
}

// WithClassifier replaces the default risk classifier.
func WithClassifier(c *Classifier) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.classifier = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a permission manager for the named preset.
func NewManager(preset Preset, opts ...ManagerOption) (*Manager, error) {
	cfg, err := PresetConfigFor(preset)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "unknown permission preset", err)
	}
	m := &Manager{
		preset:     cfg,
		classifier: NewClassifier(),
		audit:      NoopAuditStore{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Preset returns the active preset configuration.
func (m *Manager) Preset() PresetConfig {
	return m.preset
}

// Check evaluates whether agent may invoke tool with the given input.
// Tool overrides are consulted first, then the risk level against the
// preset's approval threshold. Approval requests are bounded by the
// preset's timeout; a timeout denies the call.
func (m *Manager) Check(ctx context.Context, agent, tool string, input map[string]any) (Result, error) {
	risk := m.classifier.Classify(tool, input)

	if override, ok := m.preset.ToolOverrides[tool]; ok {
		switch override {
		case OverrideDeny:
			reason := fmt.Sprintf("tool %q denied by %s preset", tool, m.preset.Name)
			m.record(ctx, agent, tool, AuditToolDenied, risk, reason, input)
			return Result{Allowed: false, RiskLevel: risk, Reason: reason}, nil
		case OverrideAllow:
			reason := fmt.Sprintf("tool %q allowed by %s preset", tool, m.preset.Name)
			m.recordAllowed(ctx, agent, tool, risk, reason, input)
			return Result{Allowed: true, RiskLevel: risk, Reason: reason}, nil
		case OverrideApprove:
			return m.requestApproval(ctx, agent, tool, risk, input)
		}
	}

	if risk.AtLeast(m.preset.ApprovalThreshold) {
		return m.requestApproval(ctx, agent, tool, risk, input)
	}

	reason := fmt.Sprintf("risk %s below %s threshold", risk, m.preset.ApprovalThreshold)
	m.recordAllowed(ctx, agent, tool, risk, reason, input)
	return Result{Allowed: true, RiskLevel: risk, Reason: reason}, nil
}

func (m *Manager) requestApproval(ctx context.Context, agent, tool string, risk RiskLevel, input map[string]any) (Result, error) {
	if m.approve == nil {
		reason := fmt.Sprintf("risk %s requires approval and no approver is configured", risk)
		m.record(ctx, agent, tool, AuditToolDenied, risk, reason, input)
		return Result{Allowed: false, RiskLevel: risk, Reason: reason, RequiresApproval: true}, nil
	}

	m.record(ctx, agent, tool, AuditApprovalRequested, risk, "", input)

	timeout := m.preset.ApprovalTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	approvalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	granted, err := m.approve(approvalCtx, ApprovalRequest{
		Agent: agent,
		Tool:  tool,
		Input: input,
		Risk:  risk,
	})
	if err != nil {
		action := AuditApprovalDenied
		reason := fmt.Sprintf("approval failed: %v", err)
		if approvalCtx.Err() != nil {
			action = AuditApprovalTimeout
			reason = "approval timed out"
		}
		m.record(ctx, agent, tool, action, risk, reason, input)
		return Result{Allowed: false, RiskLevel: risk, Reason: reason, RequiresApproval: true}, nil
	}
	if !granted {
		reason := "approval denied"
		m.record(ctx, agent, tool, AuditApprovalDenied, risk, reason, input)
		return Result{Allowed: false, RiskLevel: risk, Reason: reason, RequiresApproval: true}, nil
	}

	reason := "approval granted"
	m.record(ctx, agent, tool, AuditApprovalGranted, risk, reason, input)
	return Result{Allowed: true, RiskLevel: risk, Reason: reason, RequiresApproval: true}, nil
}

// recordAllowed audits allowed calls only when the preset asks for it.
func (m *Manager) recordAllowed(ctx context.Context, agent, tool string, risk RiskLevel, reason string, input map[string]any) {
	if !m.preset.LogAllOperations {
		return
	}
	m.record(ctx, agent, tool, AuditToolExecuted, risk, reason, input)
}

func (m *Manager) record(ctx context.Context, agent, tool string, action AuditAction, risk RiskLevel, reason string, input map[string]any) {
	err := m.audit.Record(ctx, AuditEntry{
		Agent:  agent,
		Tool:   tool,
		Action: action,
		Risk:   risk,
		Reason: reason,
		Input:  input,
	})
	if err != nil {
		m.logger.Warn("audit record failed",
			slog.String("agent", agent),
			slog.String("tool", tool),
			slog.String("action", string(action)),
			slog.Any("error", err))
	}
}
