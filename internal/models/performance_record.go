package models

import (
	"fmt"
	"time"
)

// Split is the pace readout (minutes:seconds per 500m)
type Split struct {
	Minute int
	Second int
}

// Duration returns the split as a time.Duration.
func (s Split) Duration() time.Duration {
	return time.Duration(s.Minute)*time.Minute + time.Duration(s.Second)*time.Second
}

func (s Split) IsZero() bool {
	return s.Minute == 0 && s.Second == 0
}

func (s Split) String() string {
	return fmt.Sprintf("%02d:%02d", s.Minute, s.Second)
}

// PerformanceRecord is one data row of a Cox Orb performance log
type PerformanceRecord struct {
	Distance          float64 // session-cumulative, meters
	Timestamp         time.Time
	StrokeCount       int
	StrokeRate        float64 // strokes per minute
	Check             float64
	Split             Split
	Speed             float64 // m/s
	DistancePerStroke float64 // meters
}

// PerformanceLog is the ordered output of a performance log parse.
type PerformanceLog = Sequence[PerformanceRecord]

// NewPerformanceLog copies records into a PerformanceLog.
func NewPerformanceLog(records []PerformanceRecord) PerformanceLog {
	return NewSequence(records)
}
