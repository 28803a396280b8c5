// Package tabular reads the project spreadsheets into dataframes.
package tabular

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptySheet    = errors.New("sheet has no header row")
	ErrMissingColumn = errors.New("missing column")
)

// ReadSheet loads a worksheet with its first row as header. Every column is
// kept as text.
func ReadSheet(path, sheet string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	df, err := FromRows(rows)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s[%s]: %w", path, sheet, err)
	}
	return df, nil
}

// FromRows builds a dataframe from a header row and data rows. Short rows are
// padded and long ones cut to the header width.
func FromRows(rows [][]string) (dataframe.DataFrame, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return dataframe.DataFrame{}, ErrEmptySheet
	}

	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		record := make([]string, width)
		copy(record, row)
		if i == 0 {
			for j := range record {
				record[j] = strings.TrimSpace(record[j])
			}
		}
		records = append(records, record)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

func checkColumn(df dataframe.DataFrame, col string) error {
	if !slices.Contains(df.Names(), col) {
		return fmt.Errorf("%w: %q", ErrMissingColumn, col)
	}
	return nil
}

// Equal keeps the rows whose column equals value.
func Equal(df dataframe.DataFrame, col, value string) (dataframe.DataFrame, error) {
	if err := checkColumn(df, col); err != nil {
		return dataframe.DataFrame{}, err
	}
	out := df.Filter(dataframe.F{Colname: col, Comparator: series.Eq, Comparando: value})
	return out, out.Err
}

// In keeps the rows whose column is one of values.
func In(df dataframe.DataFrame, col string, values []string) (dataframe.DataFrame, error) {
	if err := checkColumn(df, col); err != nil {
		return dataframe.DataFrame{}, err
	}
	out := df.Filter(dataframe.F{
		Colname:    col,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return slices.Contains(values, el.String())
		},
	})
	return out, out.Err
}

// Column returns the values of a column in row order.
func Column(df dataframe.DataFrame, col string) ([]string, error) {
	if err := checkColumn(df, col); err != nil {
		return nil, err
	}
	return df.Col(col).Records(), nil
}

// Count returns how many rows hold one of values in the column.
func Count(df dataframe.DataFrame, col string, values ...string) (int, error) {
	out, err := In(df, col, values)
	if err != nil {
		return 0, err
	}
	return out.Nrow(), nil
}
