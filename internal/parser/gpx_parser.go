package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/sstent/coxorb-go/internal/models"
)

// GPXTimeLayout is the only time format the Cox Orb writes into <time>.
const GPXTimeLayout = "2006-01-02T15:04:05Z"

// GMT is the fixed zone attached to every track timestamp.
var GMT = time.FixedZone("GMT", 0)

// gpxNode is a generic element. Cox Orb firmware versions disagree on the GPX
// namespace URI, so lookups are done by hand against the root's namespace
// instead of through fixed struct tags.
type gpxNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []gpxNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *gpxNode) child(space, local string) *gpxNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Space == space && c.XMLName.Local == local {
			return c
		}
	}
	return nil
}

func (n *gpxNode) children(space, local string) []*gpxNode {
	var out []*gpxNode
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Space == space && c.XMLName.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// attr looks up an unqualified attribute.
func (n *gpxNode) attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// GPXParser reads Cox Orb GPX track logs.
type GPXParser struct {
	logger *slog.Logger
}

func NewGPXParser(opts ...Option) *GPXParser {
	o := buildOptions("gpx_parser", opts)
	return &GPXParser{logger: o.logger}
}

// ParseFile checks that path is an existing .gpx file and parses it.
func (p *GPXParser) ParseFile(path string) (models.Track, error) {
	if err := checkFile(path, ".gpx"); err != nil {
		return models.Track{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return models.Track{}, &ParseError{Kind: KindFileNotFound, Path: path, Row: noRow, Message: "cannot open file", Err: err}
	}
	defer file.Close()

	track, err := p.parse(file, path)
	if err != nil {
		return models.Track{}, err
	}

	p.logger.Debug("Parsed GPX track",
		slog.String("file", path),
		slog.Int("points", track.Len()))
	return track, nil
}

// Parse reads a GPX document from r.
func (p *GPXParser) Parse(r io.Reader) (models.Track, error) {
	return p.parse(r, "")
}

func (p *GPXParser) parse(r io.Reader, path string) (models.Track, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var root gpxNode
	if err := dec.Decode(&root); err != nil {
		return models.Track{}, &ParseError{Kind: KindMalformedDocument, Path: path, Row: noRow, Message: "invalid XML", Err: err}
	}
	if err := checkTrailing(dec); err != nil {
		return models.Track{}, &ParseError{Kind: KindMalformedDocument, Path: path, Row: noRow, Message: "junk after document element", Err: err}
	}

	ns := root.XMLName.Space

	trk := root.child(ns, "trk")
	if trk == nil {
		pe := newError(KindMissingElement, path, "track not found")
		pe.Field = "trk"
		return models.Track{}, pe
	}
	seg := trk.child(ns, "trkseg")
	if seg == nil {
		pe := newError(KindMissingElement, path, "track segment not found")
		pe.Field = "trkseg"
		return models.Track{}, pe
	}

	trkpts := seg.children(ns, "trkpt")
	points := make([]models.TrackPoint, 0, len(trkpts))
	for i, trkpt := range trkpts {
		point, err := p.trackPoint(trkpt, ns, path, i)
		if err != nil {
			return models.Track{}, err
		}
		points = append(points, point)
	}

	return models.NewTrack(points), nil
}

func (p *GPXParser) trackPoint(n *gpxNode, ns, path string, idx int) (models.TrackPoint, error) {
	lat, err := p.coordinate(n, "lat", path, idx)
	if err != nil {
		return models.TrackPoint{}, err
	}
	lon, err := p.coordinate(n, "lon", path, idx)
	if err != nil {
		return models.TrackPoint{}, err
	}

	speedNode := n.child(ns, "speed")
	if speedNode == nil {
		return models.TrackPoint{}, pointError(KindMissingField, path, idx, "speed", nil)
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(speedNode.Text), 64)
	if err != nil {
		return models.TrackPoint{}, pointError(KindMalformedValue, path, idx, "speed", err)
	}

	timeNode := n.child(ns, "time")
	if timeNode == nil {
		return models.TrackPoint{}, pointError(KindMissingField, path, idx, "time", nil)
	}
	ts, err := parseGPXTime(strings.TrimSpace(timeNode.Text))
	if err != nil {
		pe := pointError(KindMalformedTimestamp, path, idx, "time", err)
		pe.Expected = GPXTimeLayout
		pe.Actual = timeNode.Text
		return models.TrackPoint{}, pe
	}

	return models.TrackPoint{
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed,
		Timestamp: ts,
	}, nil
}

// checkTrailing reads the rest of the document. Only whitespace, comments and
// processing instructions may follow the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("second root element <%s>", t.Name.Local)
		case xml.EndElement:
			return fmt.Errorf("unexpected </%s>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text %q", string(bytes.TrimSpace(t)))
			}
		}
	}
}

// coordinate reads a lat/lon attribute. A missing attribute is a GPS dropout
// and becomes NaN.
func (p *GPXParser) coordinate(n *gpxNode, name, path string, idx int) (float64, error) {
	raw, ok := n.attr(name)
	if !ok {
		p.logger.Debug("Track point without coordinate",
			slog.String("file", path),
			slog.Int("point", idx),
			slog.String("attribute", name))
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, pointError(KindMalformedValue, path, idx, name, err)
	}
	return v, nil
}

// parseGPXTime parses the device's UTC timestamp and pins it to GMT.
func parseGPXTime(s string) (time.Time, error) {
	// time.Parse accepts a fractional second the layout does not mention
	if strings.ContainsRune(s, '.') {
		return time.Time{}, fmt.Errorf("unexpected fractional seconds in %q", s)
	}
	t, err := time.Parse(GPXTimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), GMT), nil
}

func pointError(kind ErrorKind, path string, idx int, field string, err error) *ParseError {
	return &ParseError{
		Kind:    kind,
		Path:    path,
		Row:     idx,
		Field:   field,
		Message: fmt.Sprintf("track point %d", idx),
		Err:     err,
	}
}
