package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/years"
)

// Dataset is the loaded record set together with its year index.
type Dataset struct {
	Source  string
	Records []model.Record
	Years   years.Index
}

// New indexes records into a Dataset.
func New(source string, records []model.Record) Dataset {
	return Dataset{
		Source:  source,
		Records: records,
		Years:   years.Build(records),
	}
}

// LoadError reports that the data set could not be fetched or read.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Delimiter of the table; 0 sniffs it.
	Delimiter rune
	// Client is used for http(s) sources; http.DefaultClient when nil.
	Client *http.Client
	Log    logrus.FieldLogger
}

// Load reads the whole table from a local path or an http(s) URL.
// Every failure is returned as *LoadError.
func Load(ctx context.Context, source string, opts LoadOptions) (Dataset, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("source", source)
	if strings.TrimSpace(source) == "" {
		return Dataset{}, &LoadError{Source: source, Err: fmt.Errorf("data source is empty")}
	}

	started := time.Now()
	body, err := open(ctx, source, opts.Client)
	if err != nil {
		log.WithError(err).Error("Failed to open data set")
		return Dataset{}, &LoadError{Source: source, Err: err}
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			// Best-effort close on read-only source.
			_ = cerr
		}
	}()

	records, err := ParseTable(body, opts.Delimiter)
	if err != nil {
		log.WithError(err).Error("Failed to parse data set")
		return Dataset{}, &LoadError{Source: source, Err: err}
	}
	ds := New(source, records)
	log.WithFields(logrus.Fields{
		"records":  len(ds.Records),
		"years":    len(ds.Years),
		"duration": time.Since(started).String(),
	}).Info("Loaded data set")
	return ds, nil
}

func open(ctx context.Context, source string, client *http.Client) (io.ReadCloser, error) {
	if !isURL(source) {
		return os.Open(source)
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "awardboard")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return resp.Body, nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
