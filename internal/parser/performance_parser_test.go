package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstent/coxorb-go/internal/models"
)

const (
	perfHeader  = "COXORB Performance Data   10:00  01/05/2021 "
	perfColumns = "Distance,Elapsed Time,Stroke Count,Rate,Check,Speed (mm:ss/500m),Speed (m/s),Distance/Stroke"
)

func perfLog(rows ...string) string {
	lines := append([]string{perfHeader, "", perfColumns}, rows...)
	return strings.Join(lines, "\r\n") + "\r\n"
}

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestPerformanceParser_MinimalLog(t *testing.T) {
	path := writeFile(t, "graph.csv", perfLog("12.5,0:00:05.500,3,28.5,1.2,01:30,4.1,8.9"))

	log, err := NewPerformanceParser().ParseFile(path, "Europe/London")
	require.NoError(t, err)
	require.Equal(t, 1, log.Len())

	ref := time.Date(2021, 5, 1, 10, 0, 0, 0, mustLoadLocation(t, "Europe/London"))
	rec := log.At(0)

	assert.True(t, rec.Timestamp.Equal(ref.Add(5500*time.Millisecond)))
	assert.True(t, rec.Timestamp.Equal(time.Date(2021, 5, 1, 9, 0, 5, 500_000_000, time.UTC)))
	_, offset := rec.Timestamp.Zone()
	assert.Equal(t, 3600, offset)

	assert.Equal(t, models.PerformanceRecord{
		Distance:          12.5,
		Timestamp:         rec.Timestamp,
		StrokeCount:       3,
		StrokeRate:        28.5,
		Check:             1.2,
		Split:             models.Split{Minute: 1, Second: 30},
		Speed:             4.1,
		DistancePerStroke: 8.9,
	}, rec)
}

func TestPerformanceParser_RowOrderAndElapsed(t *testing.T) {
	loc := mustLoadLocation(t, "UTC")
	log, err := NewPerformanceParser().Parse(strings.NewReader(perfLog(
		"0.0,0:00:00.000,0,0.0,0.0,99:59,0.0,0.0",
		"10.2,0:00:02.25,1,30.0,0.5,02:05,4.0,10.2",
		"5000.0,1:02:03.1239,420,32.0,0.7,01:45,4.7,11.9",
	)), loc)
	require.NoError(t, err)
	require.Equal(t, 3, log.Len())

	ref := time.Date(2021, 5, 1, 10, 0, 0, 0, loc)
	want := []time.Duration{
		0,
		2*time.Second + 250*time.Millisecond,
		time.Hour + 2*time.Minute + 3*time.Second + 123*time.Millisecond,
	}
	for i, rec := range log.All() {
		assert.Equal(t, want[i], rec.Timestamp.Sub(ref), "row %d", i+firstDataRow)
	}

	assert.Equal(t, models.Split{}, log.At(0).Split)
	assert.Equal(t, models.Split{Minute: 2, Second: 5}, log.At(1).Split)
	assert.Equal(t, 420, log.At(2).StrokeCount)
}

func TestPerformanceParser_HeaderLocalized(t *testing.T) {
	tests := []struct {
		zone    string
		wantUTC time.Time
	}{
		{"UTC", time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"Europe/London", time.Date(2021, 5, 1, 9, 0, 0, 0, time.UTC)},
		{"America/New_York", time.Date(2021, 5, 1, 14, 0, 0, 0, time.UTC)},
		{"Australia/Sydney", time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			path := writeFile(t, "graph.csv", perfLog("0,0:00:00.0,0,0,0,00:00,0,0"))
			log, err := NewPerformanceParser().ParseFile(path, tt.zone)
			require.NoError(t, err)
			require.Equal(t, 1, log.Len())
			assert.True(t, log.At(0).Timestamp.Equal(tt.wantUTC), "got %s", log.At(0).Timestamp)
			assert.Equal(t, tt.zone, log.At(0).Timestamp.Location().String())
		})
	}
}

func TestParseSplit(t *testing.T) {
	tests := []struct {
		in        string
		want      models.Split
		wantFixed bool
		wantErr   bool
	}{
		{in: "01:30", want: models.Split{Minute: 1, Second: 30}},
		{in: "00:00", want: models.Split{}},
		{in: "99:59", want: models.Split{}, wantFixed: true},
		{in: "60:59", want: models.Split{Minute: 60, Second: 59}},
		{in: "61:00", want: models.Split{}, wantFixed: true},
		{in: "02:60", want: models.Split{}, wantFixed: true},
		{in: "2:5", want: models.Split{Minute: 2, Second: 5}},
		{in: "0130", wantErr: true},
		{in: "01:30:00", wantErr: true},
		{in: "aa:30", wantErr: true},
		{in: "01:-5", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, fixed, err := parseSplit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFixed, fixed)
		})
	}
}

func TestParseElapsed(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "0:00:05.500", want: 5500 * time.Millisecond},
		{in: "0:00:05.5", want: 5500 * time.Millisecond},
		{in: "0:00:05.05", want: 5050 * time.Millisecond},
		{in: "0:00:05.9999", want: 5999 * time.Millisecond},
		{in: "0:00:05.", want: 5 * time.Second},
		{in: "1:02:03.004", want: time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond},
		{in: "0:00:05", wantErr: true},
		{in: "0:05.000", wantErr: true},
		{in: "0:00:05.5.5", wantErr: true},
		{in: "0:x0:05.500", wantErr: true},
		{in: "0:00:05.5a", wantErr: true},
		{in: "-1:00:05.500", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseElapsed(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPerformanceParser_MalformedRows(t *testing.T) {
	good := "12.5,0:00:05.500,3,28.5,1.2,01:30,4.1,8.9"

	tests := []struct {
		name      string
		rows      []string
		wantRow   int
		wantField string
	}{
		{"non-numeric distance", []string{good, "abc,0:00:06.000,4,28.5,1.2,01:30,4.1,8.9"}, 4, "distance"},
		{"fractional stroke count", []string{"1,0:00:06.000,4.5,28.5,1.2,01:30,4.1,8.9"}, 3, "stroke_count"},
		{"bad rate", []string{"1,0:00:06.000,4,x,1.2,01:30,4.1,8.9"}, 3, "stroke_rate"},
		{"bad check", []string{"1,0:00:06.000,4,28,,01:30,4.1,8.9"}, 3, "check"},
		{"bad speed", []string{"1,0:00:06.000,4,28,1,01:30,fast,8.9"}, 3, "speed"},
		{"bad distance per stroke", []string{"1,0:00:06.000,4,28,1,01:30,4.1,-"}, 3, "distance_per_stroke"},
		{"elapsed without fraction", []string{"1,0:00:06,4,28,1,01:30,4.1,8.9"}, 3, "elapsed_time"},
		{"bad split", []string{"1,0:00:06.000,4,28,1,1m30,4.1,8.9"}, 3, "split"},
		{"short row", []string{good, good, "1,0:00:06.000,4,28,1"}, 5, "split"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewPerformanceParser().Parse(strings.NewReader(perfLog(tt.rows...)), time.UTC)
			require.Error(t, err)
			assert.Equal(t, 0, log.Len())

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, KindMalformedRow, pe.Kind)
			assert.Equal(t, tt.wantRow, pe.Row)
			assert.Equal(t, tt.wantField, pe.Field)
		})
	}
}

func TestPerformanceParser_FillerRowsIgnored(t *testing.T) {
	// rows 1 and 2 are skipped whatever they contain
	doc := strings.Join([]string{
		perfHeader,
		"garbage,that,would,not,parse",
		"more garbage",
		"1,0:00:01.000,1,20,0,02:00,2,2",
	}, "\n") + "\n"

	log, err := NewPerformanceParser().Parse(strings.NewReader(doc), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, log.Len())
}

func TestPerformanceParser_UnitLabelsWithBareQuotes(t *testing.T) {
	doc := strings.Join([]string{
		perfHeader,
		"",
		`Distance,Speed "mm:ss",x`,
		"12.5,0:00:05.500,3,28.5,1.2,01:30,4.1,8.9",
	}, "\r\n") + "\r\n"

	log, err := NewPerformanceParser().Parse(strings.NewReader(doc), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, log.Len())
	assert.Equal(t, 3, log.At(0).StrokeCount)
	assert.Equal(t, 12.5, log.At(0).Distance)
}

func TestPerformanceParser_HeaderOnly(t *testing.T) {
	log, err := NewPerformanceParser().Parse(strings.NewReader(perfLog()), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, log.Len())
}

func TestPerformanceParser_BadHeader(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"wrong title":    "COXORB Graph Data   10:00  01/05/2021 \n",
		"missing space":  "COXORB Performance Data   10:00  01/05/2021\n",
		"bad date":       "COXORB Performance Data   10:00  31/02/2021 \n",
		"leading blank":  "\n" + perfHeader + "\n",
		"american order": "COXORB Performance Data   10:00  05/13/2021 \n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewPerformanceParser().Parse(strings.NewReader(doc), time.UTC)
			assert.True(t, IsKind(err, KindMalformedHeader), "got %v", err)
		})
	}
}

func TestPerformanceParser_Preconditions(t *testing.T) {
	p := NewPerformanceParser()
	content := perfLog("12.5,0:00:05.500,3,28.5,1.2,01:30,4.1,8.9")

	_, err := p.ParseFile(writeFile(t, "graph.txt", content), "UTC")
	assert.True(t, IsKind(err, KindInvalidExtension))

	_, err = p.ParseFile("/nonexistent/graph.csv", "UTC")
	assert.True(t, IsKind(err, KindFileNotFound))

	path := writeFile(t, "GRAPH.CSV", content)
	_, err = p.ParseFile(path, "Mars/Olympus_Mons")
	assert.True(t, IsKind(err, KindUnknownTimezone))

	_, err = p.ParseFile(path, "")
	assert.True(t, IsKind(err, KindUnknownTimezone))

	_, err = p.ParseFile(path, "Local")
	assert.True(t, IsKind(err, KindUnknownTimezone))

	_, err = LoadTimezone("local")
	assert.True(t, IsKind(err, KindUnknownTimezone))

	_, err = p.Parse(strings.NewReader(content), nil)
	assert.True(t, IsKind(err, KindUnknownTimezone))

	_, err = p.ParseFile(path, "UTC")
	assert.NoError(t, err)
}

func TestPerformanceParser_IndependentResults(t *testing.T) {
	path := writeFile(t, "graph.csv", perfLog(
		"12.5,0:00:05.500,3,28.5,1.2,01:30,4.1,8.9",
		"20.0,0:00:07.000,4,29.0,1.1,01:32,4.0,8.7",
	))
	p := NewPerformanceParser()

	a, err := p.ParseFile(path, "Europe/London")
	require.NoError(t, err)
	b, err := p.ParseFile(path, "Europe/London")
	require.NoError(t, err)

	as, bs := a.Slice(), b.Slice()
	require.Len(t, bs, len(as))
	for i := range as {
		assert.True(t, as[i].Timestamp.Equal(bs[i].Timestamp))
		as[i].Timestamp, bs[i].Timestamp = time.Time{}, time.Time{}
		assert.Equal(t, as[i], bs[i])
	}

	s := a.Slice()
	s[0].Distance = -1
	assert.Equal(t, 12.5, a.At(0).Distance)
	assert.Equal(t, 12.5, b.At(0).Distance)
}
