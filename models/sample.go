package models

// SampleHome is a fixed placeholder row emitted by the basic housing stub.
type SampleHome struct {
	PropertyID int64
	Location   string
	Price      int64
	Bedrooms   int
	Bathrooms  int
}

// SampleJob is a fixed placeholder row emitted by the basic jobs stub.
type SampleJob struct {
	JobID    int64
	Title    string
	Company  string
	Location string
	Salary   int64
}
