package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
)

const (
	delimiter = ","
	utf8BOM   = "\uFEFF"
	// maxLineLength is the longest dataset line accepted, longer lines are skipped.
	maxLineLength = 64 * 1024
)

// FileSource reads seed addresses from a comma separated text file.
// Quoting and escaping are not supported and the file has no header line.
type FileSource struct {
	path    string
	fields  FieldMapping
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewFileSource creates a source for the dataset at path. The metrics argument may be nil.
func NewFileSource(path string, fields FieldMapping, log *slog.Logger, metrics *metrics.Metrics) *FileSource {
	return &FileSource{path: path, fields: fields, log: log, metrics: metrics}
}

// Load opens the dataset and parses it line by line.
// A missing file is returned as an error. Malformed lines are logged and skipped,
// and a read failure part way through keeps what was parsed so far.
func (fs *FileSource) Load(ctx context.Context) (models.KeySet, error) {
	file, err := os.Open(fs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	keys := fs.parse(ctx, file)
	fs.log.InfoContext(ctx, "Loaded postal codes from dataset", "path", fs.path, "keys", keys.Len())

	return keys, nil
}

func (fs *FileSource) parse(ctx context.Context, r io.Reader) models.KeySet {
	keys := models.NewKeySet()
	minFields := fs.fields.MinFields()
	reader := bufio.NewReaderSize(r, maxLineLength)

	lineNo := 0
	for {
		raw, tooLong, err := readLine(reader)
		if raw != "" || tooLong {
			lineNo++
			fs.parseLine(ctx, keys, lineNo, raw, tooLong, minFields)
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fs.log.ErrorContext(ctx, "Error occurred while processing input data", "line", lineNo, "error", err)
			break
		}
	}

	return keys
}

func (fs *FileSource) parseLine(ctx context.Context, keys models.KeySet, lineNo int, raw string, tooLong bool, minFields int) {
	if tooLong {
		fs.skip(ctx, "Dataset line is too long, skipping it", "line", lineNo, "max_length", maxLineLength)
		return
	}

	line := strings.TrimRight(raw, "\r\n")
	if lineNo == 1 {
		line = strings.TrimPrefix(line, utf8BOM)
	}
	if strings.TrimSpace(line) == "" {
		return
	}

	fs.log.DebugContext(ctx, "Read line", "line", lineNo, "content", line)

	parts := strings.Split(line, delimiter)
	if len(parts) < minFields {
		fs.skip(ctx, "Cannot parse the dataset line, skipping it",
			"line", lineNo, "fields", len(parts), "expected", minFields)
		return
	}

	addr := models.Address{
		PostalCode: strings.TrimSpace(parts[fs.fields.Key]),
		Locality:   strings.TrimSpace(parts[fs.fields.Locality]),
		Region:     strings.TrimSpace(parts[fs.fields.Region]),
	}
	if addr.PostalCode == "" {
		fs.skip(ctx, "Dataset line has an empty postal code, skipping it", "line", lineNo)
		return
	}
	keys.Add(addr)
}

// skip logs a rejected line and counts it as malformed.
func (fs *FileSource) skip(ctx context.Context, msg string, args ...any) {
	fs.log.WarnContext(ctx, msg, args...)
	if fs.metrics != nil {
		fs.metrics.MalformedLines.Inc()
	}
}

// readLine returns the next line including its terminator. A line longer than the
// reader buffer is consumed up to its end and reported as too long instead.
func readLine(reader *bufio.Reader) (string, bool, error) {
	line, err := reader.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return string(line), false, err
	}

	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = reader.ReadSlice('\n')
	}

	return "", true, err
}
