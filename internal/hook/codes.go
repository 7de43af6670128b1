package hook

import "hookAMM/internal/amm"

func init() {
	// generic kinds first; RegisterCode prepends
	amm.RegisterCode(ErrHookValidationFailed, "HookValidationFailed")
	amm.RegisterCode(ErrRegistryFull, "RegistryFull")
	amm.RegisterCode(ErrInvalidRisk, "InvalidRiskLevel")
	amm.RegisterCode(ErrNotRegistered, "HookNotRegistered")
	amm.RegisterCode(ErrUnknownPolicy, "UnknownPolicy")
	amm.RegisterCode(ErrHookNotActive, "HookNotActive")
	amm.RegisterCode(ErrNotWhitelisted, "NotWhitelisted")
	amm.RegisterCode(ErrNotVerified, "NotVerified")
	amm.RegisterCode(ErrAmountExceedsLimit, "AmountExceedsLimit")
	amm.RegisterCode(ErrRateLimitExceeded, "RateLimitExceeded")
	amm.RegisterCode(ErrComplianceViolation, "ComplianceViolation")
}
