package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/boqrecon/internal/importer/docket"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type Service struct {
	csvImporter Importer
}

func NewService() *Service {
	return &Service{
		csvImporter: docket.NewParser(),
	}
}

func (s *Service) Import(format Format, r io.Reader) ([]reconciliation.InvoiceItemParams, error) {
	var importer Importer

	switch format {
	case FormatCSV:
		importer = s.csvImporter
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return importer.Parse(r)
}
