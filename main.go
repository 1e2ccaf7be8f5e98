// main.go - coxorb loads a Cox Orb track log and performance log and reports
// what was read. Rendering the data is left to other tools.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sstent/coxorb-go/internal/config"
	"github.com/sstent/coxorb-go/internal/logging"
	"github.com/sstent/coxorb-go/internal/models"
	"github.com/sstent/coxorb-go/internal/parser"
)

// Session is everything loaded in one run.
type Session struct {
	Track       models.Track
	Performance models.PerformanceLog
}

func main() {
	if err := runMain(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "coxorb:", err)
		os.Exit(1)
	}
}

func runMain(args []string, logOut io.Writer) error {
	fs := flag.NewFlagSet("coxorb", flag.ContinueOnError)
	fs.SetOutput(logOut)
	trackFile := fs.String("track", "", "GPX or FIT track file")
	perfFile := fs.String("perf", "", "Cox Orb performance CSV file")
	timezone := fs.String("tz", "", "timezone the Cox Orb clock was set to (default $COXORB_TIMEZONE)")
	envFile := fs.String("env", ".env", "dotenv file to load")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *trackFile != "" {
		cfg.TrackFile = *trackFile
	}
	if *perfFile != "" {
		cfg.PerformanceFile = *perfFile
	}
	if *timezone != "" {
		cfg.Timezone = *timezone
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid -tz: %w", err)
		}
	}

	logger := logging.New(logOut, cfg.Logging).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	session, err := load(cfg, logger)
	if err != nil {
		logger.Error("Load failed",
			slog.String("error", err.Error()),
			slog.String("kind", string(parser.KindOf(err))))
		return err
	}

	report(logger, cfg, session)
	return nil
}

// load parses the configured files concurrently. Either file may be omitted,
// but not both.
func load(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg.TrackFile == "" && cfg.PerformanceFile == "" {
		return nil, errors.New("nothing to load: set -track and/or -perf")
	}

	var (
		session Session
		g       errgroup.Group
	)

	if cfg.TrackFile != "" {
		g.Go(func() error {
			p, err := parser.NewTrackParser(cfg.TrackFile, parser.WithLogger(logger))
			if err != nil {
				return err
			}
			track, err := p.ParseFile(cfg.TrackFile)
			if err != nil {
				return fmt.Errorf("track: %w", err)
			}
			session.Track = track
			return nil
		})
	}

	if cfg.PerformanceFile != "" {
		g.Go(func() error {
			perf, err := parser.NewPerformanceParser(parser.WithLogger(logger)).
				ParseFile(cfg.PerformanceFile, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("performance log: %w", err)
			}
			session.Performance = perf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &session, nil
}

func report(logger *slog.Logger, cfg *config.Config, s *Session) {
	if cfg.TrackFile != "" {
		attrs := []any{
			slog.String("file", cfg.TrackFile),
			slog.Int("points", s.Track.Len()),
			slog.Int("dropouts", countDropouts(s.Track)),
		}
		if start, end, ok := models.TimeSpan(s.Track, func(p models.TrackPoint) time.Time { return p.Timestamp }); ok {
			attrs = append(attrs,
				slog.String("start", start.Format(time.RFC3339)),
				slog.String("end", end.Format(time.RFC3339)))
		}
		logger.Info("Track loaded", attrs...)
	}

	if cfg.PerformanceFile != "" {
		attrs := []any{
			slog.String("file", cfg.PerformanceFile),
			slog.String("timezone", cfg.Timezone),
			slog.Int("records", s.Performance.Len()),
		}
		if start, end, ok := models.TimeSpan(s.Performance, func(r models.PerformanceRecord) time.Time { return r.Timestamp }); ok {
			last, _ := s.Performance.Last()
			attrs = append(attrs,
				slog.String("start", start.Format(time.RFC3339)),
				slog.String("end", end.Format(time.RFC3339)),
				slog.Float64("distance", last.Distance),
				slog.Int("strokes", last.StrokeCount))
		}
		logger.Info("Performance log loaded", attrs...)
	}
}

func countDropouts(track models.Track) int {
	n := 0
	for p := range track.Values() {
		if !p.HasPosition() {
			n++
		}
	}
	return n
}
