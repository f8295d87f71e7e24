package party

// ListOpts filters client listings.
type ListOpts struct {
	Country string
	Limit   int
	Offset  int
}
