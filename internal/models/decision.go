package models

// AccessDecision is the outcome of guarding one inbound request.
// Computed per request, never persisted.
type AccessDecision int

const (
	DecisionAllow AccessDecision = iota
	DecisionRedirectToLogin
	DecisionRedirectToHome
	DecisionDenyForbidden
)

func (d AccessDecision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionRedirectToLogin:
		return "redirect_to_login"
	case DecisionRedirectToHome:
		return "redirect_to_home"
	case DecisionDenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// RedirectTarget returns the location a denied request should be sent to.
// Empty string for decisions that are not redirects.
func (d AccessDecision) RedirectTarget() string {
	switch d {
	case DecisionRedirectToLogin:
		return "/login"
	case DecisionRedirectToHome:
		return "/"
	default:
		return ""
	}
}
