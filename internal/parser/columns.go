package parser

import "fmt"

// Column is the fixed position of a field in a performance log data row.
// The Cox Orb export never reorders its columns, so positions are not read
// from the header line.
type Column int

const (
	ColumnDistance Column = iota
	ColumnElapsedTime
	ColumnStrokeCount
	ColumnStrokeRate
	ColumnCheck
	ColumnSplit
	ColumnSpeed
	ColumnDistancePerStroke

	numColumns = int(ColumnDistancePerStroke) + 1
)

var columnNames = [numColumns]string{
	ColumnDistance:          "distance",
	ColumnElapsedTime:       "elapsed_time",
	ColumnStrokeCount:       "stroke_count",
	ColumnStrokeRate:        "stroke_rate",
	ColumnCheck:             "check",
	ColumnSplit:             "split",
	ColumnSpeed:             "speed",
	ColumnDistancePerStroke: "distance_per_stroke",
}

func (c Column) String() string {
	if c < 0 || int(c) >= numColumns {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnNames[c]
}
