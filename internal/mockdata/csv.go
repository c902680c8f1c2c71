// internal/mockdata/csv.go
package mockdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Row is one raw dataset record, keyed by pond id and timestamp.
type Row struct {
	PondID     string
	Timestamp  time.Time
	PH         float64
	Temp       float64
	DO         float64
	Turbidity  float64
	Nitrate    float64
	Nitrite    float64
	Ammonia    float64
	WaterLevel float64
	Status     string
}

// RowSource produces the raw rows the synchronizer derives everything from.
type RowSource interface {
	Rows(ctx context.Context) ([]Row, error)
}

// FileSource reads CSV rows from a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Rows(ctx context.Context) ([]Row, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseRows(f)
}

// HTTPSource fetches CSV rows from an http(s) URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Rows(ctx context.Context) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("csv fetch: HTTP %d", resp.StatusCode)
	}
	return parseRows(resp.Body)
}

// NewSource picks an HTTP or file source based on the configured location.
func NewSource(location string) RowSource {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{URL: location}
	}
	return FileSource{Path: location}
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseRows reads the CSV dataset. Rows missing the required fields
// (PondID, Timestamp, Temp, pH) or with an unparseable timestamp are
// skipped and logged; the remaining columns default to zero.
func parseRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.New("csv appears to be empty or invalid")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(rec []string, name string) float64 {
		v, err := strconv.ParseFloat(field(rec, name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("mockdata: skipping invalid csv row %d: %v", line, err)
			continue
		}

		pondID := field(rec, "PondID")
		tsRaw := field(rec, "Timestamp")
		if pondID == "" || tsRaw == "" || field(rec, "Temp") == "" || field(rec, "pH") == "" {
			log.Printf("mockdata: skipping csv row %d: missing required fields", line)
			continue
		}
		ts, err := parseTimestamp(tsRaw)
		if err != nil {
			log.Printf("mockdata: skipping csv row %d: %v", line, err)
			continue
		}

		rows = append(rows, Row{
			PondID:     pondID,
			Timestamp:  ts,
			PH:         num(rec, "pH"),
			Temp:       num(rec, "Temp"),
			DO:         num(rec, "DO"),
			Turbidity:  num(rec, "Turbidity"),
			Nitrate:    num(rec, "Nitrate"),
			Nitrite:    num(rec, "Nitrite"),
			Ammonia:    num(rec, "Ammonia"),
			WaterLevel: num(rec, "WaterLevel"),
			Status:     field(rec, "Status"),
		})
	}
	return rows, nil
}
