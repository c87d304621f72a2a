package ocr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
	"github.com/pakornb/moto-loan-intake/internal/core/ports"
)

// IncomeRouter dispatches income uploads by file type: PDF and XLSX go to
// the local extractor, everything else to the OCR service.
type IncomeRouter struct {
	remote ports.IncomeReader
	local  ports.IncomeReader
}

func NewIncomeRouter(remote, local ports.IncomeReader) *IncomeRouter {
	return &IncomeRouter{remote: remote, local: local}
}

func (r *IncomeRouter) ReadIncomeProof(ctx context.Context, path string) (domain.IncomeFields, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".xlsx":
		return r.local.ReadIncomeProof(ctx, path)
	default:
		return r.remote.ReadIncomeProof(ctx, path)
	}
}
