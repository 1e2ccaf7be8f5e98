package models

import (
	"math"
	"time"
)

// TrackPoint is one GPS fix taken from a Cox Orb track log
type TrackPoint struct {
	Latitude  float64 // degrees, NaN when the device dropped the fix
	Longitude float64 // degrees, NaN when the device dropped the fix
	Speed     float64 // as emitted by the device, no unit conversion
	Timestamp time.Time
}

// HasPosition reports whether both coordinates were present in the source.
func (p TrackPoint) HasPosition() bool {
	return !math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// Track is the ordered output of a track log parse.
type Track = Sequence[TrackPoint]

// NewTrack copies points into a Track.
func NewTrack(points []TrackPoint) Track {
	return NewSequence(points)
}
