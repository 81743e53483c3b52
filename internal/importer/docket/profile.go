package docket

// Profile describes the column layout of a supplier invoice or delivery docket export.
// Column names are matched case-insensitively; empty names are optional columns
// the profile does not carry.
type Profile struct {
	Name         string
	LineCol      string
	DescCol      string
	QtyCol       string
	UnitCol      string
	UnitPriceCol string
	TotalCol     string
	CategoryCol  string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.DescCol, p.QtyCol}
}

// profiles is the ordered list of layouts to try during auto-detection.
var profiles = []Profile{
	{
		Name:         "delivery docket",
		LineCol:      "item no",
		DescCol:      "product",
		QtyCol:       "qty",
		UnitCol:      "uom",
		UnitPriceCol: "rate",
		TotalCol:     "amount",
	},
	{
		Name:         "generic",
		LineCol:      "line",
		DescCol:      "description",
		QtyCol:       "quantity",
		UnitCol:      "unit",
		UnitPriceCol: "unit price",
		TotalCol:     "total",
		CategoryCol:  "category",
	},
}
