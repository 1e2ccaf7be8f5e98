package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host zoneinfo

	"github.com/sstent/coxorb-go/internal/models"
)

// PerformanceHeaderLayout matches the first cell of a Cox Orb performance log,
// e.g. "COXORB Performance Data   10:00  01/05/2021 ".
const PerformanceHeaderLayout = "COXORB Performance Data   15:04  02/01/2006 "

const (
	headerRow    = 0
	firstDataRow = 3 // rows 1 and 2 are a blank line and the column names

	maxSplitMinute = 60
	maxSplitSecond = 59
)

// PerformanceParser reads Cox Orb performance (graph) CSV logs.
type PerformanceParser struct {
	logger *slog.Logger
}

func NewPerformanceParser(opts ...Option) *PerformanceParser {
	o := buildOptions("performance_parser", opts)
	return &PerformanceParser{logger: o.logger}
}

// ParseFile checks that path is an existing .csv file, resolves timezone and
// parses the log. The header time is interpreted as local time in timezone.
func (p *PerformanceParser) ParseFile(path, timezone string) (models.PerformanceLog, error) {
	if err := checkFile(path, ".csv"); err != nil {
		return models.PerformanceLog{}, err
	}

	loc, err := LoadTimezone(timezone)
	if err != nil {
		return models.PerformanceLog{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return models.PerformanceLog{}, &ParseError{Kind: KindFileNotFound, Path: path, Row: noRow, Message: "cannot open file", Err: err}
	}
	defer file.Close()

	return p.parse(file, loc, path)
}

// Parse reads a performance log from r, localizing the session header to loc.
func (p *PerformanceParser) Parse(r io.Reader, loc *time.Location) (models.PerformanceLog, error) {
	if loc == nil {
		return models.PerformanceLog{}, newError(KindUnknownTimezone, "", "nil location")
	}
	return p.parse(r, loc, "")
}

// LoadTimezone resolves an IANA timezone name. The empty name and "Local"
// are rejected: time.LoadLocation maps them to UTC and the host zone.
func LoadTimezone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, newError(KindUnknownTimezone, "", "timezone is required")
	}
	if strings.EqualFold(name, "Local") {
		pe := newError(KindUnknownTimezone, "", "host timezone is not an IANA name")
		pe.Actual = name
		return nil, pe
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		pe := newError(KindUnknownTimezone, "", "cannot resolve timezone")
		pe.Actual = name
		pe.Err = err
		return nil, pe
	}
	return loc, nil
}

func (p *PerformanceParser) parse(r io.Reader, loc *time.Location, path string) (models.PerformanceLog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// the filler rows repeat unit labels such as Speed "mm:ss" unescaped
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		pe := newError(KindMalformedHeader, path, "cannot read session header")
		if !errors.Is(err, io.EOF) {
			pe.Err = err
		}
		return models.PerformanceLog{}, pe
	}
	if line, _ := reader.FieldPos(0); line-1 != headerRow {
		return models.PerformanceLog{}, newError(KindMalformedHeader, path, "session header is not on the first line")
	}

	ref, err := time.ParseInLocation(PerformanceHeaderLayout, header[0], loc)
	if err != nil {
		pe := newError(KindMalformedHeader, path, "session header does not match template")
		pe.Expected = PerformanceHeaderLayout
		pe.Actual = header[0]
		pe.Err = err
		return models.PerformanceLog{}, pe
	}

	var (
		records   []models.PerformanceRecord
		corrected int
	)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			row := noRow
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				row = csvErr.StartLine - 1
			}
			return models.PerformanceLog{}, &ParseError{Kind: KindMalformedRow, Path: path, Row: row, Message: "invalid CSV", Err: err}
		}

		// csv.Reader drops blank lines, so the row index comes from the line number
		line, _ := reader.FieldPos(0)
		row := line - 1
		if row < firstDataRow {
			continue
		}

		rec, fixed, err := p.record(fields, row, ref, path)
		if err != nil {
			return models.PerformanceLog{}, err
		}
		if fixed {
			corrected++
		}
		records = append(records, rec)
	}

	p.logger.Debug("Parsed performance log",
		slog.String("file", path),
		slog.String("session_start", ref.Format(time.RFC3339)),
		slog.Int("records", len(records)),
		slog.Int("corrected_splits", corrected))

	return models.NewPerformanceLog(records), nil
}

// record builds one PerformanceRecord. fixed reports whether the split was
// replaced because the device wrote an out-of-range value.
func (p *PerformanceParser) record(fields []string, row int, ref time.Time, path string) (models.PerformanceRecord, bool, error) {
	if len(fields) < numColumns {
		return models.PerformanceRecord{}, false, rowError(path, row, Column(len(fields)).String(),
			fmt.Errorf("row has %d fields, want %d", len(fields), numColumns))
	}
	field := func(c Column) string {
		return strings.TrimSpace(fields[c])
	}

	elapsed, err := parseElapsed(field(ColumnElapsedTime))
	if err != nil {
		return models.PerformanceRecord{}, false, rowError(path, row, ColumnElapsedTime.String(), err)
	}

	split, fixed, err := parseSplit(field(ColumnSplit))
	if err != nil {
		return models.PerformanceRecord{}, false, rowError(path, row, ColumnSplit.String(), err)
	}
	if fixed {
		p.logger.Debug("Out of range split replaced with 00:00",
			slog.String("file", path),
			slog.Int("row", row),
			slog.String("split", field(ColumnSplit)))
	}

	// first failing field wins; fields are read in column order
	var fieldErr error
	number := func(c Column) float64 {
		if fieldErr != nil {
			return 0
		}
		v, err := strconv.ParseFloat(field(c), 64)
		if err != nil {
			fieldErr = rowError(path, row, c.String(), err)
		}
		return v
	}
	count := func(c Column) int {
		if fieldErr != nil {
			return 0
		}
		n, err := strconv.Atoi(field(c))
		if err != nil {
			fieldErr = rowError(path, row, c.String(), err)
		}
		return n
	}

	rec := models.PerformanceRecord{
		Distance:          number(ColumnDistance),
		Timestamp:         ref.Add(elapsed),
		StrokeCount:       count(ColumnStrokeCount),
		StrokeRate:        number(ColumnStrokeRate),
		Check:             number(ColumnCheck),
		Split:             split,
		Speed:             number(ColumnSpeed),
		DistancePerStroke: number(ColumnDistancePerStroke),
	}
	if fieldErr != nil {
		return models.PerformanceRecord{}, false, fieldErr
	}

	return rec, fixed, nil
}

// parseElapsed parses "H:MM:SS.fff". Fractional digits beyond milliseconds
// are truncated.
func parseElapsed(s string) (time.Duration, error) {
	hms, frac, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("elapsed time %q has no fractional seconds", s)
	}
	if strings.Contains(frac, ".") {
		return 0, fmt.Errorf("elapsed time %q has more than one decimal point", s)
	}

	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("elapsed time %q is not H:MM:SS.fff", s)
	}
	var hms3 [3]int
	for i, part := range parts {
		n, err := parseNonNegative(part)
		if err != nil {
			return 0, fmt.Errorf("elapsed time %q: %w", s, err)
		}
		hms3[i] = n
	}

	ms, err := fractionToMillis(frac)
	if err != nil {
		return 0, fmt.Errorf("elapsed time %q: %w", s, err)
	}

	return time.Duration(hms3[0])*time.Hour +
		time.Duration(hms3[1])*time.Minute +
		time.Duration(hms3[2])*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// fractionToMillis turns the digits after a decimal point into whole
// milliseconds: "5" -> 500, "05" -> 50, "1239" -> 123.
func fractionToMillis(frac string) (int, error) {
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid fractional seconds %q", frac)
		}
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	return strconv.Atoi(frac)
}

// parseSplit parses "MM:SS". The device writes 99:59 when it has no pace,
// so anything past 60 minutes or 59 seconds becomes 00:00 and fixed is true.
func parseSplit(s string) (split models.Split, fixed bool, err error) {
	mm, ss, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(ss, ":") {
		return models.Split{}, false, fmt.Errorf("split %q is not MM:SS", s)
	}
	minute, err := parseNonNegative(mm)
	if err != nil {
		return models.Split{}, false, fmt.Errorf("split %q: %w", s, err)
	}
	second, err := parseNonNegative(ss)
	if err != nil {
		return models.Split{}, false, fmt.Errorf("split %q: %w", s, err)
	}

	if minute > maxSplitMinute || second > maxSplitSecond {
		return models.Split{}, true, nil
	}
	return models.Split{Minute: minute, Second: second}, false, nil
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
