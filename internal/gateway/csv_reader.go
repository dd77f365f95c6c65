package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"herd-census/internal/domain"
	"herd-census/internal/source"
)

// CSVRecordStore implements the RecordStore interface for CSV exports. Each
// file starts with a header row; every data row becomes a raw row keyed by
// header name, with empty cells left out.
type CSVRecordStore struct {
	animalsPath   string
	movementsPath string
}

// NewCSVRecordStore creates a new store instance. An empty movementsPath means
// the export carries no outbound movements.
func NewCSVRecordStore(animalsPath, movementsPath string) *CSVRecordStore {
	return &CSVRecordStore{animalsPath: animalsPath, movementsPath: movementsPath}
}

// ListAnimals reads the animals file. Filtering is left to the adapters.
func (s *CSVRecordStore) ListAnimals(ctx context.Context, filter domain.AnimalFilter) ([]domain.RawRow, error) {
	return readCSVRows(ctx, s.animalsPath)
}

// ListOutboundMovements reads the movements file, if any.
func (s *CSVRecordStore) ListOutboundMovements(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawRow, error) {
	if s.movementsPath == "" {
		return nil, nil
	}
	return readCSVRows(ctx, s.movementsPath)
}

func readCSVRows(ctx context.Context, path string) ([]domain.RawRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed to read header from %s: %w", path, err)
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, source.Permanent(err)
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []domain.RawRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			err = fmt.Errorf("error reading record from %s: %w", path, err)
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, source.Permanent(err)
			}
			return nil, err
		}

		row := make(domain.RawRow, len(header))
		for i, value := range record {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(value) == "" {
				continue
			}
			row[header[i]] = value
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
