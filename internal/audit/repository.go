package audit

import "context"

// Repository provides append and read operations on the activity_logs table.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}
