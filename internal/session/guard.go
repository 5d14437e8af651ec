package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
)

const dashboardPrefix = "/dashboard"

// gatePage describes one verification page: which purpose must be open for it
// to render, which page the user normally arrives from, and where to send a
// request that qualifies for neither.
type gatePage struct {
	purpose  models.Purpose
	cameFrom string
	deny     models.AccessDecision
}

var gatePages = map[string]gatePage{
	"/verify-register": {models.PurposeRegisterVerification, "/register", models.DecisionRedirectToHome},
	"/verify-login":    {models.PurposeLoginVerification, "/login", models.DecisionRedirectToLogin},
	"/verify-forgot":   {models.PurposeForgotVerification, "/forgot-password", models.DecisionRedirectToHome},
	"/change-password": {models.PurposePasswordChange, "/verify-forgot", models.DecisionRedirectToHome},
}

// Guard is the single decision authority for guarded routes. Every inbound
// request to a protected or gated route passes through Decide, which consults
// token presence, gate validity and the arrival flag, in that order, and emits
// exactly one AccessDecision. Cookie mutation happens only on the response
// path, and only when the request is allowed.
type Guard struct {
	gate    *Gate
	arrival *Arrival
	logger  logger.Logger

	now func() time.Time
}

func NewGuard(gate *Gate, arrival *Arrival, l logger.Logger) *Guard {
	return &Guard{
		gate:    gate,
		arrival: arrival,
		logger:  l,
		now:     time.Now,
	}
}

func (g *Guard) Decide(w http.ResponseWriter, r *http.Request) models.AccessDecision {
	path := r.URL.Path

	// Dashboard namespace: needs a usable token pair and the one-shot arrival
	// flag. Allowing the request spends the flag.
	if strings.HasPrefix(path, dashboardPrefix) {
		sess := models.Session{Tokens: ReadTokenPair(r), Fingerprint: ReadFingerprint(r)}
		if !sess.Usable(g.now()) {
			g.logger.Info("guard denied dashboard request", "path", path, "reason", "no usable session")
			return models.DecisionRedirectToLogin
		}
		if !g.arrival.Present(r) {
			// Valid session but no arrival flag: direct or bookmarked access
			g.logger.Info("guard denied dashboard request", "path", path, "reason", "arrival flag missing")
			return models.DecisionRedirectToLogin
		}

		g.arrival.Consume(w)
		return models.DecisionAllow
	}

	// Verification pages: exact match, needs the matching gate open
	if page, ok := gatePages[path]; ok {
		if g.gate.Peek(r, page.purpose) {
			return models.DecisionAllow
		}

		// The cookie always wins when present; the referer is consulted only
		// when it is absent, as a UX nicety for page GETs. It never gates a
		// request that mutates state.
		if r.Method == http.MethodGet && refererPath(r) == page.cameFrom {
			g.logger.Debug("gate page allowed on referer fallback", "path", path)
			return models.DecisionAllow
		}

		g.logger.Info("guard denied gate page", "path", path, "purpose", string(page.purpose))
		return page.deny
	}

	return models.DecisionAllow
}

func refererPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Path
}
