package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintUsersEmail})
	check := &pgconn.PgError{Code: "23514", ConstraintName: ConstraintStudentsWithinLimit}

	assert.True(t, IsDuplicateConstraintError(dup, ConstraintUsersEmail))
	assert.False(t, IsDuplicateConstraintError(dup, ConstraintCoursesCode))
	assert.False(t, IsDuplicateConstraintError(errors.New("boom"), ConstraintUsersEmail))

	assert.True(t, IsCheckViolation(check, ConstraintStudentsWithinLimit))
	assert.False(t, IsCheckViolation(dup, ConstraintUsersEmail))

	fk := fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503", ConstraintName: ConstraintCreditsFarm})
	assert.True(t, IsForeignKeyViolation(fk, ConstraintCreditsFarm))
	assert.True(t, IsForeignKeyViolation(fk, ""))
	assert.False(t, IsForeignKeyViolation(fk, ConstraintUsersEmail))
	assert.False(t, IsForeignKeyViolation(check, ""))
}
