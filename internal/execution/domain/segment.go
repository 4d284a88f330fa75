// Package domain holds the pure execution rules: segment kinds, status
// derivation, and discount arithmetic. Nothing here touches storage or HTTP.
package domain

import (
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
)

// SegmentKind classifies a time segment. The set is closed; anything else is
// rejected at the boundary.
type SegmentKind string

const (
	// SegmentWork is productive time on the order.
	SegmentWork SegmentKind = "work"
	// SegmentPause is a justified pause (coffee, meeting, shift end).
	SegmentPause SegmentKind = "pause"
	// SegmentMaterialStop is a stop waiting on material. Closing one debits
	// the collaborator's rework ledger for the stopped duration.
	SegmentMaterialStop SegmentKind = "material_stop"
)

// ParseSegmentKind validates a raw kind string.
func ParseSegmentKind(raw string) (SegmentKind, error) {
	switch SegmentKind(raw) {
	case SegmentWork, SegmentPause, SegmentMaterialStop:
		return SegmentKind(raw), nil
	default:
		return "", apperr.Validation("unknown segment kind: " + raw)
	}
}

// SegmentHours converts a closed segment's span to fractional hours,
// clamped at zero so clock skew can never produce a negative duration.
func SegmentHours(startedAt, endedAt time.Time) float64 {
	hours := endedAt.Sub(startedAt).Hours()
	if hours < 0 {
		return 0
	}
	return hours
}
