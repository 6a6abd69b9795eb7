package services

import (
	"fmt"
	"strings"
)

// Source names one input collection of an operation together with the
// variables requested from it.
type Source struct {
	Collection string
	Variables  []string
}

// Operation describes one data-processing request during routing. The
// router may set OutputFormat as a side effect of format negotiation; it
// touches nothing else.
type Operation struct {
	Sources      []Source
	OutputFormat string
}

// RequiresVariableSubsetting returns true if any source asks for a subset
// of variables
func (o *Operation) RequiresVariableSubsetting() bool {
	for _, s := range o.Sources {
		if len(s.Variables) > 0 {
			return true
		}
	}
	return false
}

// Collections returns the distinct collection ids referenced by the
// operation's sources, in source order.
func (o *Operation) Collections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range o.Sources {
		if !seen[s.Collection] {
			seen[s.Collection] = true
			out = append(out, s.Collection)
		}
	}
	return out
}

// RoutingContext carries the request-level negotiation inputs the router
// reads but never writes.
type RoutingContext struct {
	// RequestedMimeTypes lists accept patterns, most preferred first
	RequestedMimeTypes []string
}

// stageResult is the outcome of one filtering stage: either a surviving
// candidate set or a diagnostic failure reason. Stages never panic or
// return errors; an empty candidate set with a reason is the only failure
// signal.
type stageResult struct {
	candidates []Descriptor
	reason     string
}

func (r stageResult) failed() bool {
	return len(r.candidates) == 0
}

func survivors(candidates []Descriptor) stageResult {
	return stageResult{candidates: candidates}
}

func noMatch(reason string) stageResult {
	return stageResult{reason: reason}
}

// NoOpService builds the synthetic fallback descriptor carrying a
// diagnostic message. It performs no backend invocation.
func NoOpService(message string) Descriptor {
	return Descriptor{
		Name:    "noOpService",
		Kind:    KindNoOp,
		Message: message,
	}
}

// SelectService chooses the backend service for an operation. Candidates
// are narrowed through three ordered stages (collection coverage, variable
// subsetting, output format) and the first descriptor surviving all three,
// in declaration order, is the selection. Format negotiation writes the
// resolved format onto op.OutputFormat.
//
// SelectService never fails: when no configured service can perform the
// operation it returns the no-op descriptor carrying a diagnostic message,
// so callers always receive a usable selection.
func SelectService(op *Operation, rctx RoutingContext, reg *Registry) Descriptor {
	res := matchCollections(reg.All(), op)
	if res.failed() {
		return NoOpService(res.reason)
	}

	afterCollections := res.candidates

	res = matchVariableSubsetting(afterCollections, op)
	if res.failed() {
		return NoOpService(res.reason)
	}

	res = matchFormats(res.candidates, op, rctx)
	if res.failed() {
		return NoOpService(diagnoseFormatFailure(res.reason, afterCollections, op, rctx))
	}

	return res.candidates[0]
}

// matchCollections keeps descriptors that cover every source collection of
// the operation.
func matchCollections(candidates []Descriptor, op *Operation) stageResult {
	var kept []Descriptor
	for _, d := range candidates {
		if coversAllCollections(d, op) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return noMatch("no services are configured for the collection")
	}
	return survivors(kept)
}

func coversAllCollections(d Descriptor, op *Operation) bool {
	for _, c := range op.Collections() {
		if !d.HasCollection(c) {
			return false
		}
	}
	return true
}

// matchVariableSubsetting keeps descriptors capable of variable subsetting
// when the operation needs it; otherwise all candidates pass through.
func matchVariableSubsetting(candidates []Descriptor, op *Operation) stageResult {
	if !op.RequiresVariableSubsetting() {
		return survivors(candidates)
	}
	var kept []Descriptor
	for _, d := range candidates {
		if d.Capabilities.VariableSubsetting {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return noMatch("none of the services configured for the collection support variable subsetting")
	}
	return survivors(kept)
}

// matchFormats resolves a concrete output format and keeps descriptors
// supporting it. When the operation names no format and the request carries
// no accept patterns there is no format constraint and all candidates pass.
// On success the resolved format is written back onto the operation.
func matchFormats(candidates []Descriptor, op *Operation, rctx RoutingContext) stageResult {
	patterns := requestedPatterns(op, rctx)
	if len(patterns) == 0 {
		return survivors(candidates)
	}

	// First requested pattern satisfiable by any candidate wins; the
	// resolved format is the first matching entry of the first surviving
	// descriptor.
	for _, pattern := range patterns {
		var matching []Descriptor
		for _, d := range candidates {
			if d.SupportsFormat(pattern) {
				matching = append(matching, d)
			}
		}
		if len(matching) == 0 {
			continue
		}

		resolved := matching[0].FirstFormatMatching(pattern)
		op.OutputFormat = resolved

		var kept []Descriptor
		for _, d := range matching {
			if d.SupportsFormat(resolved) {
				kept = append(kept, d)
			}
		}
		return survivors(kept)
	}

	return noMatch(fmt.Sprintf(
		"none of the services configured for the collection support reformatting to any of the requested formats [%s]",
		strings.Join(patterns, ", ")))
}

// requestedPatterns returns the accept patterns to negotiate against: an
// already-resolved output format takes precedence over the request's accept
// list.
func requestedPatterns(op *Operation, rctx RoutingContext) []string {
	if op.OutputFormat != "" {
		return []string{op.OutputFormat}
	}
	return rctx.RequestedMimeTypes
}

// diagnoseFormatFailure refines a format-stage failure message. When the
// operation also requires variable subsetting, and dropping that
// requirement would have produced a match, the two constraints are jointly
// unsupported and the message must say so.
func diagnoseFormatFailure(reason string, afterCollections []Descriptor, op *Operation, rctx RoutingContext) string {
	if !op.RequiresVariableSubsetting() {
		return reason
	}

	// Re-run the format stage over the collection survivors, ignoring the
	// subsetting constraint. Negotiate against a scratch copy so the probe
	// cannot leak a resolved format onto the operation.
	probe := Operation{Sources: op.Sources, OutputFormat: op.OutputFormat}
	if !matchFormats(afterCollections, &probe, rctx).failed() {
		return fmt.Sprintf(
			"none of the services configured for the collection support variable subsetting together with the requested output formats [%s]",
			strings.Join(requestedPatterns(op, rctx), ", "))
	}
	return reason
}
