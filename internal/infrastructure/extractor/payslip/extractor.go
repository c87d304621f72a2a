package payslip

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// Extractor reads income fields out of PDF and XLSX payslip uploads
// locally, without calling the OCR service. It implements the income
// reader port for the document types the vision OCR cannot handle.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ReadIncomeProof(ctx context.Context, path string) (domain.IncomeFields, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDFText(path)
	case ".xlsx":
		text, err = extractXLSXText(path)
	default:
		return domain.IncomeFields{}, fmt.Errorf("unsupported payslip type: %s", filepath.Ext(path))
	}
	if err != nil {
		return domain.IncomeFields{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.IncomeFields{}, err
	}
	return ParseIncomeText(text), nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", filepath.Base(path), err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", filepath.Base(path), err)
	}
	return buf.String(), nil
}

func extractXLSXText(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open xlsx %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
