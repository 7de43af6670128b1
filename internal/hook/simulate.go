package hook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// SimulateRequest describes a transfer to pre-check.
type SimulateRequest struct {
	Transfer
	CarriesHook bool
	Whitelist   []common.Address
	Authorizers []common.Address
}

// Report is the outcome of a simulation. Reasons is empty when Allowed.
type Report struct {
	Allowed    bool
	Authorizer common.Address
	Reasons    []string
}

// Simulator pre-checks transfers against the gate and the registered hook
// programs without touching balances or rate windows.
type Simulator struct {
	registry     *Registry
	evaluator    *Evaluator
	maxRiskLevel uint8
	logger       *zap.Logger
}

func NewSimulator(registry *Registry, evaluator *Evaluator, maxRiskLevel uint8, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRiskLevel == 0 {
		maxRiskLevel = RiskHigh
	}
	return &Simulator{
		registry:     registry,
		evaluator:    evaluator,
		maxRiskLevel: maxRiskLevel,
		logger:       logger,
	}
}

func (s *Simulator) Simulate(req SimulateRequest) Report {
	if !req.CarriesHook {
		return Report{Allowed: true}
	}

	authorizer, ok := FirstTrusted(req.Whitelist, req.Authorizers)
	if !ok {
		return Report{Reasons: []string{"no presented authorizer is whitelisted"}}
	}

	report := Report{Allowed: true, Authorizer: authorizer}
	if s.registry == nil {
		return report
	}
	entry, ok := s.registry.Lookup(authorizer)
	if !ok {
		return report
	}

	if !entry.Active {
		report.Reasons = append(report.Reasons, ErrHookNotActive.Error())
	}
	if entry.RiskLevel > s.maxRiskLevel {
		report.Reasons = append(report.Reasons, fmt.Sprintf("risk level %d above maximum %d", entry.RiskLevel, s.maxRiskLevel))
	}
	if s.evaluator != nil {
		if err := s.evaluator.Peek(authorizer, entry.Policy, req.Transfer); err != nil {
			report.Reasons = append(report.Reasons, err.Error())
		}
	}
	if len(report.Reasons) > 0 {
		report.Allowed = false
		s.logger.Debug("simulated transfer rejected",
			zap.String("authorizer", authorizer.Hex()),
			zap.Strings("reasons", report.Reasons),
		)
	}
	return report
}

// Charge runs the registered policy of authorizer against an executed
// transfer and consumes its rate-window capacity, so later simulations see
// the volume. Unregistered and inactive programs are not charged.
func (s *Simulator) Charge(authorizer common.Address, t Transfer) error {
	if s.registry == nil || s.evaluator == nil {
		return nil
	}
	entry, ok := s.registry.Lookup(authorizer)
	if !ok || !entry.Active {
		return nil
	}
	return s.evaluator.Check(authorizer, entry.Policy, t)
}
