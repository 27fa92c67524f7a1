// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"

	"github.com/pdiddy/lead-engine/pkg/types"
)

// ConfigError reports a missing or rejected credential (HTTP 401/403 from
// an official API, or an absent token). It is fatal for the affected
// adapter call only; the caller reports it distinctly from "no results"
// and continues with other sources.
type ConfigError struct {
	Platform types.Platform
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Platform, e.Reason)
}

// AcquireError reports a network, timeout, or parse failure during a
// fetch stage, with enough context for the caller to decide retry/abort.
// Non-final stages recover from it by advancing the fallback chain; only
// the final stage's AcquireError reaches the caller.
type AcquireError struct {
	Platform   types.Platform
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *AcquireError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: acquisition failed at %s (HTTP %d): %v", e.Platform, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: acquisition failed at %s: %v", e.Platform, e.Endpoint, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }
