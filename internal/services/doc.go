// Package services defines shared utilities consumed by the session
// controllers and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures with a
//     consistent taxonomy (parse, device, missing asset, external service,
//     dimension mismatch).
//   - HTTP clients for the speech and language services live in subpackages
//     (openai, elevenlabs).
//
// Use these helpers when wiring new controller logic so error handling stays
// uniform across the appliance.
package services
