package parser

import (
	"bufio"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"github.com/sstent/coxorb-go/internal/models"
)

// fitEpoch is the FIT time base; a record stamped with it carries no time.
var fitEpoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// FITParser reads the GPS track of a FIT activity file, e.g. from a watch
// worn in the boat alongside the Cox Orb. It yields the same Track as
// GPXParser.
type FITParser struct {
	logger *slog.Logger
}

func NewFITParser(opts ...Option) *FITParser {
	o := buildOptions("fit_parser", opts)
	return &FITParser{logger: o.logger}
}

func (p *FITParser) ParseFile(path string) (models.Track, error) {
	if err := checkFile(path, ".fit"); err != nil {
		return models.Track{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return models.Track{}, &ParseError{Kind: KindFileNotFound, Path: path, Row: noRow, Message: "cannot open file", Err: err}
	}
	defer file.Close()

	track, err := p.parse(bufio.NewReader(file), path)
	if err != nil {
		return models.Track{}, err
	}

	p.logger.Debug("Parsed FIT track",
		slog.String("file", path),
		slog.Int("points", track.Len()))
	return track, nil
}

func (p *FITParser) Parse(r io.Reader) (models.Track, error) {
	return p.parse(r, "")
}

func (p *FITParser) parse(r io.Reader, path string) (models.Track, error) {
	fitFile, err := fit.Decode(r)
	if err != nil {
		return models.Track{}, &ParseError{Kind: KindMalformedDocument, Path: path, Row: noRow, Message: "failed to decode FIT file", Err: err}
	}

	activity, err := fitFile.Activity()
	if err != nil {
		return models.Track{}, &ParseError{Kind: KindMalformedDocument, Path: path, Row: noRow, Message: "not an activity file", Err: err}
	}

	points := make([]models.TrackPoint, 0, len(activity.Records))
	for i, rec := range activity.Records {
		point, err := trackPointFromRecord(rec, path, i)
		if err != nil {
			return models.Track{}, err
		}
		points = append(points, point)
	}
	return models.NewTrack(points), nil
}

// trackPointFromRecord converts one record message. Invalid positions become
// NaN as with GPX dropouts; a record without any speed is rejected.
func trackPointFromRecord(rec *fit.RecordMsg, path string, idx int) (models.TrackPoint, error) {
	if rec.Timestamp.IsZero() || rec.Timestamp.Equal(fitEpoch) {
		return models.TrackPoint{}, pointError(KindMissingField, path, idx, "timestamp", nil)
	}

	speed := rec.GetSpeedScaled()
	if math.IsNaN(speed) {
		speed = rec.GetEnhancedSpeedScaled()
	}
	if math.IsNaN(speed) {
		return models.TrackPoint{}, pointError(KindMissingField, path, idx, "speed", nil)
	}

	lat, lon := math.NaN(), math.NaN()
	if !rec.PositionLat.Invalid() {
		lat = rec.PositionLat.Degrees()
	}
	if !rec.PositionLong.Invalid() {
		lon = rec.PositionLong.Degrees()
	}

	return models.TrackPoint{
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed,
		Timestamp: rec.Timestamp.In(GMT),
	}, nil
}
