// Package repository provides the data access layer for Athenaeum.
// This file contains the repository bundle shared by both database backends.
package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User        UserRepository
	Book        BookRepository
	Issue       IssueRepository
	Reservation ReservationRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies the health endpoint's database checker.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
