package importer

import (
	"io"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type Format string

const (
	FormatCSV Format = "csv"
)

// Importer turns an uploaded supplier document into invoice item params.
type Importer interface {
	Parse(r io.Reader) ([]reconciliation.InvoiceItemParams, error)
}
