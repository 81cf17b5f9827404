package repositories

import (
	"context"
)

// Repository aggregates all sub-repositories behind one handle.
// Methods that take a tx parameter run inside that transaction when it
// is non-nil and against the base connection otherwise.
type Repository interface {
	Test() TestRepository
	Question() QuestionRepository
	Assignment() AssignmentRepository
	Result() ResultRepository
	User() UserRepository
	Dashboard() DashboardRepository

	// WithTransaction runs fn inside a single database transaction,
	// committing on nil and rolling back on error.
	WithTransaction(ctx context.Context, fn func(txRepo Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}
