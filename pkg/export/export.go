package export

// Statement is the flattened view of a month handed to exporters.
type Statement struct {
	Title   string
	Headers []string
	Rows    [][]string
	Summary map[string]string
}

// Exporter renders a statement into a downloadable payload.
type Exporter interface {
	Render(st Statement) ([]byte, error)
	ContentType() string
	Extension() string
}
