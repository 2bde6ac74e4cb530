// Package excel reads plate tables (XLSX or CSV) into the wide dose table
// consumed by the pipeline. It is an input adapter: parsing concerns stop
// here, the core only sees dose.Table.
package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dosefit/domain/dose"
	"dosefit/internal/errors"

	"github.com/xuri/excelize/v2"
)

// PlateReader reads one plate file. It implements ports.TableReader.
type PlateReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewPlateReader creates a reader for an .xlsx or .csv plate file.
func NewPlateReader(filePath string) *PlateReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &PlateReader{filePath: filePath, fileType: fileType}
}

// ReadTable reads the plate into a dose.Table. The first column must be the
// dose column ("Dose"); every other column is a sample named
// <ConditionLetter><ReplicateDigits>. Empty cells become missing values.
func (r *PlateReader) ReadTable() (dose.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return dose.Table{}, errors.NotFound("plate file " + r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return dose.Table{}, err
	}
	return buildTable(rows)
}

func (r *PlateReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open plate workbook")
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Sheet1")
	}
	return rows, nil
}

func (r *PlateReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open plate file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read plate file")
	}
	return rows, nil
}

func buildTable(rows [][]string) (dose.Table, error) {
	if len(rows) < 2 {
		return dose.Table{}, errors.InvalidInput("plate needs a header row and at least one data row")
	}

	header := rows[0]
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "Dose") {
		return dose.Table{}, errors.InvalidInput("first plate column must be \"Dose\"")
	}

	table := dose.Table{}
	for _, name := range header[1:] {
		table.Samples = append(table.Samples, dose.SampleColumn{Name: strings.TrimSpace(name)})
	}

	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return dose.Table{}, errors.Wrapf(err, "row %d: bad dose %q", i+2, row[0])
		}
		table.Doses = append(table.Doses, d)

		for j := range table.Samples {
			cell := ""
			if j+1 < len(row) {
				cell = strings.TrimSpace(row[j+1])
			}
			if cell == "" {
				table.Samples[j].Values = append(table.Samples[j].Values, dose.Missing())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return dose.Table{}, errors.Wrapf(err, "row %d column %q: bad response %q", i+2, table.Samples[j].Name, cell)
			}
			table.Samples[j].Values = append(table.Samples[j].Values, v)
		}
	}

	if len(table.Doses) == 0 {
		return dose.Table{}, errors.InvalidInput("plate has no data rows")
	}
	return table, nil
}
