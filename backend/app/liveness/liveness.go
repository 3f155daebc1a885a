// Package liveness derives a device's online state from its last heartbeat.
package liveness

import "time"

// Threshold is how long a heartbeat keeps a device online.
const Threshold = 190 * time.Second

// IsOnline reports whether a heartbeat at last still counts as online at now.
// The boundary is exclusive: exactly Threshold old is offline.
func IsOnline(last, now time.Time) bool {
	return now.Sub(last) < Threshold
}
