package services

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
)

// InitializeSDK checks the binding's version against constraint, when one is
// set, and initializes the SDK with the license key and receiver.
func InitializeSDK(ctx context.Context, binding sdk.SDK, licenseKey, constraint string, receiver sdk.Receiver, logger zerolog.Logger) error {
	version := binding.Version()

	if constraint != "" {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return fmt.Errorf("invalid sdk version constraint %q: %w", constraint, err)
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			return fmt.Errorf("invalid sdk version %q: %w", version, err)
		}
		if !c.Check(v) {
			return fmt.Errorf("sdk version %s does not satisfy %s", version, constraint)
		}
	}

	if err := binding.Initialize(ctx, licenseKey, receiver); err != nil {
		logger.Error().Err(err).Str("version", version).Msg("Failed to initialize SDK")
		return fmt.Errorf("failed to initialize sdk: %w", err)
	}

	logger.Info().Str("version", version).Msg("SDK initialized")
	return nil
}
