package export

// Dataset is a header-ordered table of string cells.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Field is one labelled line on a single-record document such as a booking slip.
type Field struct {
	Label string
	Value string
}

func (d Dataset) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
