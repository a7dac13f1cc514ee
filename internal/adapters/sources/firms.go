package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

// FetchHazards reads active fire detections from a NASA FIRMS CSV export.
// Intensity is the brightness temperature (bright_ti4 for VIIRS,
// brightness for MODIS).
func (s *Sources) FetchHazards(ctx context.Context) (ports.FetchResult[domain.Hazard], error) {
	body, err := fetch(ctx, s.firms, httpclient.Request{URL: s.cfg.FirmsURL})
	if err != nil {
		return ports.FetchResult[domain.Hazard]{}, err
	}
	res, err := ParseFIRMS(bytes.NewReader(body))
	if err != nil {
		return res, domain.UpstreamError("firms", err)
	}
	return res, nil
}

// ParseFIRMS decodes a FIRMS CSV stream.
func ParseFIRMS(r io.Reader) (ports.FetchResult[domain.Hazard], error) {
	var res ports.FetchResult[domain.Hazard]

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		return res, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	brightCol := "bright_ti4"
	if _, ok := cols[brightCol]; !ok {
		brightCol = "brightness"
	}
	for _, required := range []string{"latitude", "longitude", brightCol} {
		if _, ok := cols[required]; !ok {
			return res, fmt.Errorf("missing column %q", required)
		}
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Dropped++
			continue
		}

		lat, errLat := strconv.ParseFloat(getField(record, cols, "latitude"), 64)
		lon, errLon := strconv.ParseFloat(getField(record, cols, "longitude"), 64)
		if errLat != nil || errLon != nil {
			res.Dropped++
			continue
		}
		loc, ok := point(lat, lon)
		if !ok {
			res.Dropped++
			continue
		}
		intensity, err := strconv.ParseFloat(getField(record, cols, brightCol), 64)
		if err != nil || math.IsNaN(intensity) || math.IsInf(intensity, 0) {
			res.Dropped++
			continue
		}

		acqDate := getField(record, cols, "acq_date")
		acqTime := getField(record, cols, "acq_time")
		res.Items = append(res.Items, domain.Hazard{
			ID:         fmt.Sprintf("firms-%d-%s-%s", row, acqDate, acqTime),
			Location:   loc,
			Intensity:  intensity,
			Confidence: getField(record, cols, "confidence"),
			DetectedAt: parseAcquired(acqDate, acqTime),
		})
	}
	return res, nil
}

// parseAcquired joins acq_date (YYYY-MM-DD) and acq_time (HHMM, leading
// zeros optional) into a UTC time. Zero on failure.
func parseAcquired(date, hhmm string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}
	}
	n, err := strconv.Atoi(strings.TrimSpace(hhmm))
	if err != nil || n < 0 || n > 2359 {
		return d
	}
	return d.Add(time.Duration(n/100)*time.Hour + time.Duration(n%100)*time.Minute)
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		m[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	if idx, ok := cols[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
