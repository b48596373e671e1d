package domain

import "errors"

var (
	// ErrUnsortedYears is returned by the comparator when year summaries are
	// not sorted ascending; downstream index alignment depends on the order.
	ErrUnsortedYears = errors.New("year summaries not sorted ascending by year")
	// ErrReportNotFound indicates no report has been archived for the subject.
	ErrReportNotFound = errors.New("report not found")
)
