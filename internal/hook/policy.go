package hook

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// Policy errors. All of them wrap ErrHookValidationFailed.
var (
	ErrHookValidationFailed = errors.New("transfer hook validation failed")

	ErrHookNotActive       = fmt.Errorf("%w: hook not active", ErrHookValidationFailed)
	ErrNotWhitelisted      = fmt.Errorf("%w: destination not whitelisted", ErrHookValidationFailed)
	ErrNotVerified         = fmt.Errorf("%w: party not verified", ErrHookValidationFailed)
	ErrAmountExceedsLimit  = fmt.Errorf("%w: amount exceeds limit", ErrHookValidationFailed)
	ErrRateLimitExceeded   = fmt.Errorf("%w: rate limit exceeded", ErrHookValidationFailed)
	ErrComplianceViolation = fmt.Errorf("%w: compliance violation", ErrHookValidationFailed)
	ErrUnknownPolicy       = fmt.Errorf("%w: unknown policy", ErrHookValidationFailed)
)

// Transfer is the subject of a policy check.
type Transfer struct {
	Asset       common.Address
	Source      common.Address
	Destination common.Address
	Amount      uint64
}

// Policy is one of WhitelistPolicy, KYCPolicy, RateLimitPolicy or
// CompliancePolicy.
type Policy interface {
	policy()
}

// WhitelistPolicy admits transfers to listed destinations only.
type WhitelistPolicy struct {
	Destinations []common.Address
}

// KYCPolicy admits transfers between verified parties only.
type KYCPolicy struct {
	Verified []common.Address
}

// RateLimitPolicy caps single transfers at MaxAmount and the volume per
// source at WindowCap over Window. A zero WindowCap disables the window.
type RateLimitPolicy struct {
	MaxAmount uint64        `yaml:"max_amount"`
	Window    time.Duration `yaml:"window"`
	WindowCap uint64        `yaml:"window_cap"`
}

// RuleKind names a compliance rule.
type RuleKind string

const (
	RuleMaxAmount RuleKind = "max_amount"
	RuleMinAmount RuleKind = "min_amount"
)

// ComplianceRule is a threshold on the transfer amount.
type ComplianceRule struct {
	Kind  RuleKind `yaml:"kind"`
	Value uint64   `yaml:"value"`
}

// CompliancePolicy requires every rule to hold. Unknown rule kinds are ignored.
type CompliancePolicy struct {
	Rules []ComplianceRule
}

func (WhitelistPolicy) policy()  {}
func (KYCPolicy) policy()        {}
func (RateLimitPolicy) policy()  {}
func (CompliancePolicy) policy() {}

// Evaluator checks transfers against policies and keeps the rate windows.
type Evaluator struct {
	mu       sync.Mutex
	limiters map[limiterKey]*rate.Limiter
	now      func() time.Time
}

// limiterKey includes the policy so a re-approved program with new limits
// starts a fresh window.
type limiterKey struct {
	program common.Address
	source  common.Address
	policy  RateLimitPolicy
}

// NewEvaluator returns an Evaluator using the wall clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		limiters: make(map[limiterKey]*rate.Limiter),
		now:      time.Now,
	}
}

// Check evaluates the policy of program against t and consumes rate-window
// capacity on success.
func (e *Evaluator) Check(program common.Address, p Policy, t Transfer) error {
	return e.evaluate(program, p, t, true)
}

// Peek evaluates like Check without consuming rate-window capacity.
func (e *Evaluator) Peek(program common.Address, p Policy, t Transfer) error {
	return e.evaluate(program, p, t, false)
}

func (e *Evaluator) evaluate(program common.Address, p Policy, t Transfer, consume bool) error {
	switch pol := p.(type) {
	case nil:
		return nil
	case WhitelistPolicy:
		if !contains(pol.Destinations, t.Destination) {
			return fmt.Errorf("%w: %s", ErrNotWhitelisted, t.Destination.Hex())
		}
		return nil
	case KYCPolicy:
		if !contains(pol.Verified, t.Source) {
			return fmt.Errorf("%w: source %s", ErrNotVerified, t.Source.Hex())
		}
		if !contains(pol.Verified, t.Destination) {
			return fmt.Errorf("%w: destination %s", ErrNotVerified, t.Destination.Hex())
		}
		return nil
	case RateLimitPolicy:
		if pol.MaxAmount > 0 && t.Amount > pol.MaxAmount {
			return fmt.Errorf("%w: %d > %d", ErrAmountExceedsLimit, t.Amount, pol.MaxAmount)
		}
		if pol.WindowCap == 0 || pol.Window <= 0 {
			return nil
		}
		return e.takeWindow(program, pol, t, consume)
	case CompliancePolicy:
		for _, rule := range pol.Rules {
			switch rule.Kind {
			case RuleMaxAmount:
				if t.Amount > rule.Value {
					return fmt.Errorf("%w: amount %d above %d", ErrComplianceViolation, t.Amount, rule.Value)
				}
			case RuleMinAmount:
				if t.Amount < rule.Value {
					return fmt.Errorf("%w: amount %d below %d", ErrComplianceViolation, t.Amount, rule.Value)
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownPolicy, p)
	}
}

func (e *Evaluator) takeWindow(program common.Address, pol RateLimitPolicy, t Transfer, consume bool) error {
	if t.Amount > pol.WindowCap {
		return fmt.Errorf("%w: %d above window cap %d", ErrRateLimitExceeded, t.Amount, pol.WindowCap)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := limiterKey{program: program, source: t.Source, policy: pol}
	lim, ok := e.limiters[key]
	if !ok {
		every := rate.Limit(float64(pol.WindowCap) / pol.Window.Seconds())
		lim = rate.NewLimiter(every, clampInt(pol.WindowCap))
		e.limiters[key] = lim
	}

	now := e.now()
	if !consume {
		if lim.TokensAt(now) < float64(t.Amount) {
			return fmt.Errorf("%w: %d requested", ErrRateLimitExceeded, t.Amount)
		}
		return nil
	}
	if !lim.AllowN(now, clampInt(t.Amount)) {
		return fmt.Errorf("%w: %d requested", ErrRateLimitExceeded, t.Amount)
	}
	return nil
}

func clampInt(v uint64) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}

func contains(list []common.Address, addr common.Address) bool {
	for _, item := range list {
		if item == addr {
			return true
		}
	}
	return false
}
