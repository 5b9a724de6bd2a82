package dataset

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gapdash/internal/logging"
)

//go:embed data/gapminder_sample.csv
var embedded embed.FS

const embeddedPath = "data/gapminder_sample.csv"

// EmbeddedSource is the source name of the bundled sample.
const EmbeddedSource = "embedded"

// slowLoad is the load time above which a warning is logged.
const slowLoad = 5 * time.Second

// ErrNoHeader is returned when a CSV source has no header row.
var ErrNoHeader = errors.New("dataset: missing header row")

// Open loads a dataset from the embedded sample, a local CSV path or an
// http(s) URL. It is meant to run once at process start.
func Open(ctx context.Context, source string) (*Dataset, error) {
	timer := logging.StartTimer(logging.CategoryDataset, "dataset.Open")
	defer timer.StopWithThreshold(slowLoad)

	rc, err := openSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := Load(rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", describe(source), err)
	}
	logging.Dataset("Loaded %d records from %s (%d continents, %d years)",
		ds.Len(), describe(source), len(ds.Continents()), len(ds.Years()))
	return ds, nil
}

func describe(source string) string {
	if source == "" {
		return EmbeddedSource
	}
	return source
}

func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == "" || source == EmbeddedSource:
		return embedded.Open(embeddedPath)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch dataset: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		return f, nil
	}
}

// Load parses a CSV table, renames source columns to canonical names and
// normalizes Year to an integer. Canonical columns absent from the header are
// substituted with nulls rather than failing the load; malformed numeric
// cells are treated as null.
func Load(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if c := CanonicalName(h); c != "" {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		} else if h != "" {
			logging.DatasetDebug("Dropping unknown column %q", h)
		}
	}
	if len(index) == 0 {
		return nil, ErrNoHeader
	}

	var nulls []string
	for _, c := range Columns {
		if _, ok := index[c]; !ok {
			nulls = append(nulls, c)
			logging.DatasetWarn("Column %q missing from source; substituting nulls", c)
		}
	}

	var records []Record
	bad := 0
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := Record{
			Country:   cell(ColCountry),
			Continent: cell(ColContinent),
			ISO3:      cell(ColISO3),
		}
		var ok bool
		if rec.Year, ok = parseInt(cell(ColYear)); !ok {
			bad++
		}
		if rec.LifeExpectancy, ok = parseFloat(cell(ColLifeExpectancy)); !ok {
			bad++
		}
		var pop int
		if pop, ok = parseInt(cell(ColPopulation)); !ok {
			bad++
		}
		rec.Population = int64(pop)
		if rec.GDPPerCapita, ok = parseFloat(cell(ColGDPPerCapita)); !ok {
			bad++
		}
		if rec.ISONumeric, ok = parseInt(cell(ColISONumeric)); !ok {
			bad++
		}
		records = append(records, rec)
	}

	if bad > 0 {
		logging.DatasetWarn("%d malformed numeric cells treated as null", bad)
	}
	return New(records, nulls...), nil
}

// parseInt accepts integer and float spellings ("1952", "1952.0").
// Empty cells are null and not reported as malformed.
func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	f = math.Round(f)
	// float64(math.MaxInt) rounds up to 2^63, so >= excludes it
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// parseFloat accepts finite numbers only; NaN and ±Inf are malformed.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
