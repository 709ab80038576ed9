// Package market wires the provider adapters, the fallback orchestration, and
// the local indicator engine into the query service the transport surfaces
// consume.
package market

import (
	"context"
	"errors"
	"fmt"

	"stockdesk/internal/provider"
)

// Fetcher produces one logical query result. ok=false with a nil error means
// the source answered but had no usable data.
type Fetcher[T any] func(ctx context.Context) (data T, ok bool, err error)

// Source pairs a fetcher with the provider name used for provenance.
type Source[T any] struct {
	Name  string
	Fetch Fetcher[T]
}

// Result is what a caller gets back from the orchestrator. Exactly one of two
// shapes occurs: OK with Data/Source (Warning optionally set), or !OK with a
// single user-facing Err string. The orchestrator never returns a Go error;
// every failure path is folded into Err.
type Result[T any] struct {
	Data    T
	OK      bool
	Source  string
	Warning string
	Err     string

	// Failure classifies a terminal Err so transports can pick a status
	// code without parsing the message. Empty on success.
	Failure provider.Code
}

// Resolve runs the two-step fallback chain: try primary, then secondary, one
// after another, never concurrently. A fallback success carries a warning
// explaining why the primary did not answer. A terminal failure produces one
// message ranked RATE_LIMIT > AUTH > NOT_FOUND/no-data > generic, regardless
// of which source produced which failure.
func Resolve[T any](ctx context.Context, primary, secondary *Source[T]) Result[T] {
	var (
		primaryErr    error
		primaryNoData bool
	)

	if primary != nil {
		data, ok, err := primary.Fetch(ctx)
		switch {
		case err == nil && ok:
			return Result[T]{Data: data, OK: true, Source: primary.Name}
		case err != nil:
			primaryErr = err
		default:
			primaryNoData = true
		}
	}

	var (
		secondaryErr    error
		secondaryNoData bool
	)

	if secondary != nil {
		data, ok, err := secondary.Fetch(ctx)
		switch {
		case err == nil && ok:
			return Result[T]{
				Data:    data,
				OK:      true,
				Source:  secondary.Name,
				Warning: fallbackWarning(primary, primaryErr),
			}
		case err != nil:
			secondaryErr = err
		default:
			secondaryNoData = true
		}
	}

	msg, code := terminalMessage(primaryErr, secondaryErr, primaryNoData || secondaryNoData)
	return Result[T]{Err: msg, Failure: code}
}

// fallbackWarning explains why the fallback fired.
func fallbackWarning[T any](primary *Source[T], primaryErr error) string {
	if primary == nil {
		return ""
	}
	if primaryErr != nil {
		return fmt.Sprintf("%s failed (%s); served from fallback provider", primary.Name, shortReason(primaryErr))
	}
	return fmt.Sprintf("%s returned no data; served from fallback provider", primary.Name)
}

func shortReason(err error) string {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return err.Error()
}

// terminalMessage derives the single user-facing failure string. The priority
// ordering is deliberate and fixed: rate limiting dominates, then auth, then
// unknown-symbol/no-data, then a generic provider failure.
func terminalMessage(primaryErr, secondaryErr error, anyNoData bool) (string, provider.Code) {
	if hasCode(provider.CodeRateLimit, primaryErr, secondaryErr) {
		return "Provider rate limit reached. Try again shortly or use API keys with a higher quota.", provider.CodeRateLimit
	}
	if hasCode(provider.CodeAuth, primaryErr, secondaryErr) {
		return "Provider rejected the API credentials. Check that the configured API keys are valid.", provider.CodeAuth
	}
	if hasCode(provider.CodeNotFound, primaryErr, secondaryErr) || anyNoData {
		return "No data available. The symbol may be invalid or the requested window empty.", provider.CodeNotFound
	}
	if primaryErr != nil || secondaryErr != nil {
		return "Upstream providers failed to answer. " + joinErrors(primaryErr, secondaryErr), provider.CodeUpstream
	}
	return "No data source is configured for this query.", provider.CodeUpstream
}

func hasCode(code provider.Code, errs ...error) bool {
	for _, err := range errs {
		if err == nil {
			continue
		}
		var perr *provider.Error
		if errors.As(err, &perr) && perr.Code == code {
			return true
		}
	}
	return false
}

func joinErrors(errs ...error) string {
	out := ""
	for _, err := range errs {
		if err == nil {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += err.Error()
	}
	return out
}
