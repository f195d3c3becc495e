package repositories

// rowScanner abstracts pgx.Row and pgx.Rows for the scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}
