package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraints the repositories translate into application errors
const (
	ConstraintUsersEmail          = "users_email_key"
	ConstraintStudentsUserID      = "students_user_id_key"
	ConstraintCoursesCode         = "courses_code_key"
	ConstraintTransactionsRequest = "transactions_request_id_key"
	ConstraintStudentsWithinLimit = "students_used_within_limit"
	ConstraintFarmsEmail          = "farms_email_key"
	ConstraintFarmsCode           = "farms_farm_code_key"
	ConstraintCreditsFarm         = "carbon_credits_farm_fkey"
)

const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation
// for a specific constraint or unique index.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsCheckViolation checks if the error is a PostgreSQL CHECK constraint violation
func IsCheckViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeCheckViolation && pgErr.ConstraintName == constraintName
}

// IsForeignKeyViolation checks if the error is a PostgreSQL foreign key violation
// for a specific constraint, or for any constraint when constraintName is empty.
func IsForeignKeyViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeForeignKeyViolation {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}
