// Package permissions requests OS-level permissions before tracking.
//
// Results are informational: callers log them and carry on unless they opt
// into enforcing a grant.
package permissions

import (
	"context"

	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/observability"
	"github.com/roam-ai/whileusing-batch-listener/internal/utils"
	"github.com/rs/zerolog"
)

// Permission names an OS permission.
type Permission string

const (
	PhoneState   Permission = "phone_state"
	FineLocation Permission = "fine_location"
)

// Status is the outcome of a permission request.
type Status string

const (
	Granted Status = "granted"
	Denied  Status = "denied"
)

// Rationale is shown to the user alongside the request.
type Rationale struct {
	Title          string
	Message        string
	ButtonPositive string
}

// Rationales used by the tracker.
var (
	PhoneStateRationale = Rationale{
		Title:          "Phone State Permission",
		Message:        "App needs phone state access to work properly.",
		ButtonPositive: "OK",
	}
	FineLocationRationale = Rationale{
		Title:          "Location Permission",
		Message:        "App needs location access for tracking.",
		ButtonPositive: "OK",
	}
)

// Requester asks the platform for a permission.
type Requester interface {
	Request(ctx context.Context, permission Permission, rationale Rationale) (Status, error)
}

// PlatformRequester prompts only on platforms with runtime permissions and
// logs every outcome. Elsewhere requests resolve to Granted without prompting,
// unless the requester was built to prompt everywhere.
type PlatformRequester struct {
	platform   string
	prompter   Requester
	everywhere bool
	logger     zerolog.Logger
}

// NewPlatformRequester wraps prompter for the given GOOS value.
func NewPlatformRequester(platform string, prompter Requester, logger zerolog.Logger) *PlatformRequester {
	return &PlatformRequester{platform: platform, prompter: prompter, logger: logger}
}

// NewPromptingRequester wraps prompter so it is asked on every platform.
func NewPromptingRequester(platform string, prompter Requester, logger zerolog.Logger) *PlatformRequester {
	return &PlatformRequester{platform: platform, prompter: prompter, everywhere: true, logger: logger}
}

// Request asks for permission. A failed prompt is reported as Denied.
func (p *PlatformRequester) Request(ctx context.Context, permission Permission, rationale Rationale) (Status, error) {
	if !p.everywhere && p.platform != constants.PlatformAndroid {
		p.logger.Debug().
			Str("permission", string(permission)).
			Str("platform", p.platform).
			Msg("Runtime permission not required on this platform")
		observability.PermissionRequests.WithLabelValues(string(permission), string(Granted)).Inc()
		return Granted, nil
	}

	status, err := p.prompter.Request(ctx, permission, rationale)
	if err != nil {
		status = Denied
	}
	observability.PermissionRequests.WithLabelValues(string(permission), string(status)).Inc()

	event := p.logger.Debug()
	switch {
	case err != nil:
		event = p.logger.Warn().Err(err)
	case status == Denied:
		event = p.logger.Info()
	}
	event.Str("permission", string(permission)).Str("status", string(status)).Msg("Permission request completed")
	return status, err
}

// PolicyRequester answers from a fixed set of granted permissions.
type PolicyRequester struct {
	grants utils.Set[Permission]
}

// NewPolicyRequester grants exactly the listed permissions.
func NewPolicyRequester(grants []Permission) *PolicyRequester {
	return &PolicyRequester{grants: utils.NewSet(grants...)}
}

// Request reports Granted for configured permissions and Denied otherwise.
func (p *PolicyRequester) Request(ctx context.Context, permission Permission, _ Rationale) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Denied, err
	}
	if p.grants.Has(permission) {
		return Granted, nil
	}
	return Denied, nil
}
