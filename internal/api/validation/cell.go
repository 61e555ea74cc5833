package validation

import "fmt"

// Cell data types accepted on the write path.
var cellDataTypes = map[string]bool{
	"text":    true,
	"number":  true,
	"date":    true,
	"boolean": true,
	"formula": true,
}

// SaveCellRequest mirrors the fields needed for cell save validation.
// SheetRows and SheetColumns carry the target sheet's fixed dimensions.
type SaveCellRequest struct {
	Row          int
	Col          int
	DataType     string
	SheetRows    int
	SheetColumns int
}

// ValidateSaveCellRequest validates the addressed position and data type of a
// cell save. The value itself is never validated: any string is storable, and
// an empty value is a delete, not an error.
func ValidateSaveCellRequest(req SaveCellRequest) []FieldError {
	var errs []FieldError

	if req.Row < 0 {
		errs = append(errs, FieldError{Field: "row", Message: "row must be non-negative"})
	} else if req.Row >= req.SheetRows {
		errs = append(errs, FieldError{Field: "row", Message: fmt.Sprintf("row must be less than %d", req.SheetRows)})
	}

	if req.Col < 0 {
		errs = append(errs, FieldError{Field: "col", Message: "col must be non-negative"})
	} else if req.Col >= req.SheetColumns {
		errs = append(errs, FieldError{Field: "col", Message: fmt.Sprintf("col must be less than %d", req.SheetColumns)})
	}

	if req.DataType != "" && !cellDataTypes[req.DataType] {
		errs = append(errs, FieldError{Field: "data_type", Message: "data_type must be one of text, number, date, boolean, formula"})
	}

	return errs
}
