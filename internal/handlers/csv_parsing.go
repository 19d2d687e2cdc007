package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/rebalance"
)

// ParseAssetCSV parses an asset import CSV into asset requests.
// Required columns: symbol, asset_class. Optional: name.
// Header names are case-insensitive; blank lines are skipped. Asset classes
// accept the same aliases as the API (e.g. "stocks", "fii", "bond").
func ParseAssetCSV(r io.Reader) ([]models.AssetRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"symbol", "asset_class"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	field := func(record []string, col string) string {
		idx, ok := colIdx[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var assets []models.AssetRequest
	rowNum := 1 // header is row 1, data starts at row 2
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: failed to read CSV record: %w", rowNum+1, err)
		}
		rowNum++

		symbol := field(record, "symbol")
		if symbol == "" {
			return nil, fmt.Errorf("row %d: symbol is empty", rowNum)
		}

		class, err := rebalance.ParseAssetClass(field(record, "asset_class"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		assets = append(assets, models.AssetRequest{
			Symbol:     strings.ToUpper(symbol),
			Name:       field(record, "name"),
			AssetClass: string(class),
		})
	}

	return assets, nil
}
