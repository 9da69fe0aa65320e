package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/db"
)

// UserRepository persists accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// List returns one page of accounts, newest first, plus the total matching count
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)
	// Update writes the administrator-managed fields: role and active flag
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// StudentRepository persists student profiles and their purchase counters.
// Counter updates are single conditional statements, never read-modify-write.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Student, error)
	UpdateProfile(ctx context.Context, student *models.Student) error
	IncrementRequestCount(ctx context.Context, id int64, at time.Time) error
	// ApplyApprovedPurchase adds amount to the used total only while it stays within the limit.
	// It reports false when the guard rejected the update or the student does not exist.
	ApplyApprovedPurchase(ctx context.Context, id int64, amount decimal.Decimal, at time.Time) (bool, error)
	ResetUsage(ctx context.Context, id int64, at time.Time) error
	// UpdateLimit sets a new limit only when it is not below the used amount
	UpdateLimit(ctx context.Context, id int64, limit decimal.Decimal, at time.Time) (bool, error)
	AddCompletedCourse(ctx context.Context, id, courseID int64, at time.Time) error
	// List returns one page of students, newest first, plus the total count
	List(ctx context.Context, page, size int) ([]models.Student, int64, error)
	Count(ctx context.Context) (int64, error)
}

// CourseRepository persists the course catalogue
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
}

// PurchaseRequestRepository persists purchase requests
type PurchaseRequestRepository interface {
	Create(ctx context.Context, request *models.PurchaseRequest) error
	GetByID(ctx context.Context, id int64) (*models.PurchaseRequest, error)
	List(ctx context.Context, filter models.PurchaseRequestFilter) ([]models.PurchaseRequest, int64, error)
	// Transition moves a request out of pending with a compare-and-set on status.
	// A lost race yields *TransitionConflictError carrying the stored status.
	Transition(ctx context.Context, t models.StatusTransition) (*models.PurchaseRequest, error)
	// AggregateByStatus returns count and total per status, for one student or all when studentID is 0
	AggregateByStatus(ctx context.Context, studentID int64) (map[models.PurchaseStatus]models.StatusAggregate, error)
	CountApprovedSince(ctx context.Context, since time.Time) (int64, error)
	// ListApprovedWithoutTransaction finds approvals whose ledger entry is missing
	ListApprovedWithoutTransaction(ctx context.Context, limit int) ([]models.PurchaseRequest, error)
}

// TransactionRepository persists immutable ledger entries
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	// ListByStudent returns newest first; limit <= 0 returns all
	ListByStudent(ctx context.Context, studentID int64, limit int) ([]models.Transaction, error)
	ListByStudentSince(ctx context.Context, studentID int64, since time.Time) ([]models.Transaction, error)
	CountByRequest(ctx context.Context, requestID int64) (int64, error)
	// ListRecent returns the newest entries across all students
	ListRecent(ctx context.Context, limit int) ([]models.Transaction, error)
	Count(ctx context.Context) (int64, error)
}

// FarmRepository persists the partner farm registry, keyed by farm code
type FarmRepository interface {
	Create(ctx context.Context, farm *models.Farm) error
	GetByCode(ctx context.Context, code string) (*models.Farm, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int64, error)
	UpdateStatus(ctx context.Context, code string, status models.FarmStatus, at time.Time) (*models.Farm, error)
	// Delete removes a farm. A farm that still has credits is reported as a conflict.
	Delete(ctx context.Context, code string) error
	Count(ctx context.Context) (int64, error)
}

// CreditRepository persists carbon credit batches
type CreditRepository interface {
	Create(ctx context.Context, credit *models.CarbonCredit) error
	GetByID(ctx context.Context, id int64) (*models.CarbonCredit, error)
	List(ctx context.Context, filter models.CreditFilter) ([]models.CarbonCredit, int64, error)
	// Transition advances a credit with a compare-and-set on its status.
	// A lost race yields an InvalidState error carrying the stored status.
	Transition(ctx context.Context, t models.CreditTransition) (*models.CarbonCredit, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Users            UserRepository
	Students         StudentRepository
	Courses          CourseRepository
	PurchaseRequests PurchaseRequestRepository
	Transactions     TransactionRepository
	Farms            FarmRepository
	Credits          CreditRepository
}

// TxManager runs a unit of work whose repository calls commit or roll back together
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// TransitionConflictError reports a compare-and-set that found the request no longer pending
type TransitionConflictError struct {
	Current models.PurchaseStatus
}

func (e *TransitionConflictError) Error() string {
	return fmt.Sprintf("purchase request is %s, not pending", e.Current)
}

// NewRepositories initializes the PostgreSQL repositories over a pool or a transaction
func NewRepositories(conn db.DBTX) *Repositories {
	return &Repositories{
		Users:            NewUserRepository(conn),
		Students:         NewStudentRepository(conn),
		Courses:          NewCourseRepository(conn),
		PurchaseRequests: NewPurchaseRequestRepository(conn),
		Transactions:     NewTransactionRepository(conn),
		Farms:            NewFarmRepository(conn),
		Credits:          NewCreditRepository(conn),
	}
}

type postgresTxManager struct {
	db *db.PostgresDB
}

// NewTxManager returns a TxManager backed by db.WithTransaction
func NewTxManager(database *db.PostgresDB) TxManager {
	return &postgresTxManager{db: database}
}

func (m *postgresTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return m.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}
