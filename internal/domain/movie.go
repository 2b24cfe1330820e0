package domain

// Default catalog coordinates of the movie table read by the job.
const (
	DefaultDatabase = "glue-demo-db"
	DefaultTable    = "read"
)

// TableRef identifies a table registered in the catalog.
type TableRef struct {
	Database string
	Table    string
}

// String renders the reference as database.table for logs.
func (t TableRef) String() string {
	return t.Database + "." + t.Table
}

// MovieRecord is one row of the catalog movie table. Nil fields are NULL in
// the source.
type MovieRecord struct {
	Title  *string
	Year   *int64
	Rating *float64
}
