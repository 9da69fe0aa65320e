package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
)

// Store is an in-memory implementation of the repository interfaces. It is safe
// for concurrent use and is intended for tests and local development.
//
// Units of work run one at a time under txMu and are rolled back from a snapshot
// when they fail. Writes outside a unit of work also take txMu, so a unit of work
// never interleaves with another writer. Reads only take mu.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	nextID       int64
	users        map[int64]models.User
	students     map[int64]models.Student
	courses      map[int64]models.Course
	requests     map[int64]models.PurchaseRequest
	transactions map[int64]models.Transaction
	farms        map[int64]models.Farm
	credits      map[int64]models.CarbonCredit
}

var _ repositories.TxManager = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		users:        make(map[int64]models.User),
		students:     make(map[int64]models.Student),
		courses:      make(map[int64]models.Course),
		requests:     make(map[int64]models.PurchaseRequest),
		transactions: make(map[int64]models.Transaction),
		farms:        make(map[int64]models.Farm),
		credits:      make(map[int64]models.CarbonCredit),
	}
}

// Repositories returns repositories whose writes each commit immediately
func (s *Store) Repositories() *repositories.Repositories {
	return s.repositories(false)
}

func (s *Store) repositories(inTx bool) *repositories.Repositories {
	return &repositories.Repositories{
		Users:            &userRepo{s: s, inTx: inTx},
		Students:         &studentRepo{s: s, inTx: inTx},
		Courses:          &courseRepo{s: s, inTx: inTx},
		PurchaseRequests: &requestRepo{s: s, inTx: inTx},
		Transactions:     &transactionRepo{s: s, inTx: inTx},
		Farms:            &farmRepo{s: s, inTx: inTx},
		Credits:          &creditRepo{s: s, inTx: inTx},
	}
}

// WithinTx runs fn against repositories bound to this unit of work and restores
// the previous state if fn returns an error.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	if err := fn(ctx, s.repositories(true)); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	nextID       int64
	users        map[int64]models.User
	students     map[int64]models.Student
	courses      map[int64]models.Course
	requests     map[int64]models.PurchaseRequest
	transactions map[int64]models.Transaction
	farms        map[int64]models.Farm
	credits      map[int64]models.CarbonCredit
}

// stored values are never mutated in place, so copying the maps is enough
func (s *Store) snapshotLocked() snapshot {
	return snapshot{
		nextID:       s.nextID,
		users:        copyMap(s.users),
		students:     copyMap(s.students),
		courses:      copyMap(s.courses),
		requests:     copyMap(s.requests),
		transactions: copyMap(s.transactions),
		farms:        copyMap(s.farms),
		credits:      copyMap(s.credits),
	}
}

func (s *Store) restoreLocked(snap snapshot) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.students = snap.students
	s.courses = snap.courses
	s.requests = snap.requests
	s.transactions = snap.transactions
	s.farms = snap.farms
	s.credits = snap.credits
}

// write applies fn under the write lock, serialising with units of work when called outside one
func (s *Store) write(inTx bool, fn func() error) error {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// UserRepository implementation ----------------------------------------------

type userRepo struct {
	s    *Store
	inTx bool
}

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	return r.s.write(r.inTx, func() error {
		for _, u := range r.s.users {
			if strings.EqualFold(u.Email, user.Email) {
				return apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists, "Email already registered")
			}
		}
		now := time.Now().UTC()
		user.ID = r.s.nextIDLocked()
		user.CreatedAt = now
		user.UpdatedAt = now
		r.s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	var out *models.User
	r.s.read(func() {
		if u, ok := r.s.users[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	return out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var out *models.User
	r.s.read(func() {
		for _, u := range r.s.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	return out, nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.s.write(r.inTx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return apperrors.NewNotFoundError("User not found")
		}
		u.LastLoginAt = &at
		r.s.users[id] = u
		return nil
	})
}

func (r *userRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	all := []models.User{}
	r.s.read(func() {
		for _, u := range r.s.users {
			if filter.Role == "" || u.Role == filter.Role {
				all = append(all, u)
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, filter.Page, filter.PageSize)
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	return r.s.write(r.inTx, func() error {
		u, ok := r.s.users[user.ID]
		if !ok {
			return apperrors.NewNotFoundError("User not found")
		}
		u.Role = user.Role
		u.IsActive = user.IsActive
		u.UpdatedAt = user.UpdatedAt
		r.s.users[u.ID] = u
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	return r.s.write(r.inTx, func() error {
		if _, ok := r.s.users[id]; !ok {
			return apperrors.NewNotFoundError("User not found")
		}
		for _, pr := range r.s.requests {
			if pr.ReviewedBy != nil && *pr.ReviewedBy == id {
				return apperrors.NewConflictError(apperrors.ErrConflict, "User is referenced by reviewed purchase requests; deactivate it instead")
			}
		}
		for sid, st := range r.s.students {
			if st.UserID == id {
				st = cloneStudent(st)
				st.UserID = 0
				r.s.students[sid] = st
			}
		}
		for fid, f := range r.s.farms {
			if f.UserID != nil && *f.UserID == id {
				f.UserID = nil
				r.s.farms[fid] = f
			}
		}
		delete(r.s.users, id)
		return nil
	})
}

func (r *userRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func() { n = int64(len(r.s.users)) })
	return n, nil
}

// StudentRepository implementation -------------------------------------------

type studentRepo struct {
	s    *Store
	inTx bool
}

func (r *studentRepo) Create(_ context.Context, student *models.Student) error {
	return r.s.write(r.inTx, func() error {
		if student.UserID != 0 {
			for _, existing := range r.s.students {
				if existing.UserID == student.UserID {
					return apperrors.NewConflictError(apperrors.ErrConflict, "User already has a student profile")
				}
			}
		}
		now := time.Now().UTC()
		student.ID = r.s.nextIDLocked()
		student.UsedPurchaseAmount = decimal.Zero
		if student.Interests == nil {
			student.Interests = []string{}
		}
		if student.CompletedCourses == nil {
			student.CompletedCourses = []int64{}
		}
		student.CreatedAt = now
		student.UpdatedAt = now
		r.s.students[student.ID] = cloneStudent(*student)
		return nil
	})
}

func (r *studentRepo) GetByID(_ context.Context, id int64) (*models.Student, error) {
	var out *models.Student
	r.s.read(func() {
		if st, ok := r.s.students[id]; ok {
			st = cloneStudent(st)
			out = &st
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("Student not found")
	}
	return out, nil
}

func (r *studentRepo) GetByUserID(_ context.Context, userID int64) (*models.Student, error) {
	var out *models.Student
	r.s.read(func() {
		for _, st := range r.s.students {
			if st.UserID == userID {
				st = cloneStudent(st)
				out = &st
				return
			}
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("Student not found")
	}
	return out, nil
}

// update applies fn to a copy of the stored student and saves it when fn reports a change
func (r *studentRepo) update(id int64, fn func(st *models.Student) bool) (bool, error) {
	var changed bool
	err := r.s.write(r.inTx, func() error {
		st, ok := r.s.students[id]
		if !ok {
			return apperrors.NewNotFoundError("Student not found")
		}
		st = cloneStudent(st)
		if changed = fn(&st); changed {
			r.s.students[id] = st
		}
		return nil
	})
	return changed, err
}

func (r *studentRepo) UpdateProfile(_ context.Context, student *models.Student) error {
	_, err := r.update(student.ID, func(st *models.Student) bool {
		st.Name = student.Name
		st.Year = student.Year
		st.Interests = append([]string{}, student.Interests...)
		st.GPA = student.GPA
		st.UpdatedAt = student.UpdatedAt
		return true
	})
	return err
}

func (r *studentRepo) IncrementRequestCount(_ context.Context, id int64, at time.Time) error {
	_, err := r.update(id, func(st *models.Student) bool {
		st.PurchaseRequestsCount++
		st.UpdatedAt = at
		return true
	})
	return err
}

func (r *studentRepo) ApplyApprovedPurchase(_ context.Context, id int64, amount decimal.Decimal, at time.Time) (bool, error) {
	applied, err := r.update(id, func(st *models.Student) bool {
		if st.UsedPurchaseAmount.Add(amount).GreaterThan(st.PurchaseLimit) {
			return false
		}
		st.UsedPurchaseAmount = st.UsedPurchaseAmount.Add(amount)
		st.TotalPurchases++
		st.LastPurchaseDate = &at
		st.UpdatedAt = at
		return true
	})
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return applied, err
}

func (r *studentRepo) ResetUsage(_ context.Context, id int64, at time.Time) error {
	_, err := r.update(id, func(st *models.Student) bool {
		st.UsedPurchaseAmount = decimal.Zero
		st.UpdatedAt = at
		return true
	})
	return err
}

func (r *studentRepo) UpdateLimit(_ context.Context, id int64, limit decimal.Decimal, at time.Time) (bool, error) {
	updated, err := r.update(id, func(st *models.Student) bool {
		if st.UsedPurchaseAmount.GreaterThan(limit) {
			return false
		}
		st.PurchaseLimit = limit
		st.UpdatedAt = at
		return true
	})
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return updated, err
}

func (r *studentRepo) AddCompletedCourse(_ context.Context, id, courseID int64, at time.Time) error {
	_, err := r.update(id, func(st *models.Student) bool {
		if st.HasCompleted(courseID) {
			return false
		}
		st.CompletedCourses = append(st.CompletedCourses, courseID)
		st.UpdatedAt = at
		return true
	})
	return err
}

func (r *studentRepo) List(_ context.Context, pageNum, size int) ([]models.Student, int64, error) {
	all := []models.Student{}
	r.s.read(func() {
		for _, st := range r.s.students {
			all = append(all, cloneStudent(st))
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, pageNum, size)
}

func (r *studentRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func() { n = int64(len(r.s.students)) })
	return n, nil
}

// CourseRepository implementation --------------------------------------------

type courseRepo struct {
	s    *Store
	inTx bool
}

func (r *courseRepo) Create(_ context.Context, course *models.Course) error {
	return r.s.write(r.inTx, func() error {
		for _, c := range r.s.courses {
			if strings.EqualFold(c.Code, course.Code) {
				return apperrors.NewConflictError(apperrors.ErrCodeAlreadyExists, "Course code "+course.Code+" already exists")
			}
		}
		course.ID = r.s.nextIDLocked()
		course.CreatedAt = time.Now().UTC()
		r.s.courses[course.ID] = cloneCourse(*course)
		return nil
	})
}

func (r *courseRepo) GetByID(_ context.Context, id int64) (*models.Course, error) {
	var out *models.Course
	r.s.read(func() {
		if c, ok := r.s.courses[id]; ok {
			c = cloneCourse(c)
			out = &c
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("Course not found")
	}
	return out, nil
}

func (r *courseRepo) List(_ context.Context) ([]models.Course, error) {
	out := []models.Course{}
	r.s.read(func() {
		for _, c := range r.s.courses {
			out = append(out, cloneCourse(c))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PurchaseRequestRepository implementation -----------------------------------

type requestRepo struct {
	s    *Store
	inTx bool
}

func (r *requestRepo) Create(_ context.Context, request *models.PurchaseRequest) error {
	return r.s.write(r.inTx, func() error {
		request.ID = r.s.nextIDLocked()
		request.UpdatedAt = request.RequestedAt
		r.s.requests[request.ID] = cloneRequest(*request)
		return nil
	})
}

func (r *requestRepo) GetByID(_ context.Context, id int64) (*models.PurchaseRequest, error) {
	var out *models.PurchaseRequest
	r.s.read(func() {
		if pr, ok := r.s.requests[id]; ok {
			pr = cloneRequest(pr)
			out = &pr
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("Purchase request not found")
	}
	return out, nil
}

func matches(pr models.PurchaseRequest, f models.PurchaseRequestFilter) bool {
	if f.Status != "" && pr.Status != f.Status {
		return false
	}
	if f.StudentID > 0 && pr.StudentID != f.StudentID {
		return false
	}
	if f.CompanyID > 0 && pr.CompanyID != f.CompanyID {
		return false
	}
	return true
}

func (r *requestRepo) List(_ context.Context, filter models.PurchaseRequestFilter) ([]models.PurchaseRequest, int64, error) {
	all := []models.PurchaseRequest{}
	r.s.read(func() {
		for _, pr := range r.s.requests {
			if matches(pr, filter) {
				all = append(all, cloneRequest(pr))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].RequestedAt.Equal(all[j].RequestedAt) {
			return all[i].RequestedAt.After(all[j].RequestedAt)
		}
		return all[i].ID > all[j].ID
	})

	return page(all, filter.Page, filter.PageSize)
}

func (r *requestRepo) Transition(_ context.Context, t models.StatusTransition) (*models.PurchaseRequest, error) {
	if !domain.CanTransition(models.StatusPending, t.To) {
		return nil, apperrors.NewValidationError("Unsupported target status: " + string(t.To))
	}

	var out *models.PurchaseRequest
	err := r.s.write(r.inTx, func() error {
		pr, ok := r.s.requests[t.RequestID]
		if !ok {
			return apperrors.NewNotFoundError("Purchase request not found")
		}
		if domain.IsTerminal(pr.Status) {
			return &repositories.TransitionConflictError{Current: pr.Status}
		}
		pr = cloneRequest(pr)
		at := t.At
		pr.Status = t.To
		pr.ReviewedBy = t.ReviewedBy
		pr.ReviewedAt = &at
		pr.ReasonForRejection = t.ReasonForRejection
		pr.UpdatedAt = at
		r.s.requests[pr.ID] = pr
		result := cloneRequest(pr)
		out = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestRepo) AggregateByStatus(_ context.Context, studentID int64) (map[models.PurchaseStatus]models.StatusAggregate, error) {
	result := make(map[models.PurchaseStatus]models.StatusAggregate, len(models.AllPurchaseStatuses))
	for _, status := range models.AllPurchaseStatuses {
		result[status] = models.StatusAggregate{TotalAmount: decimal.Zero}
	}
	r.s.read(func() {
		for _, pr := range r.s.requests {
			if studentID > 0 && pr.StudentID != studentID {
				continue
			}
			agg := result[pr.Status]
			agg.Count++
			agg.TotalAmount = agg.TotalAmount.Add(pr.TotalAmount)
			result[pr.Status] = agg
		}
	})
	return result, nil
}

func (r *requestRepo) CountApprovedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	r.s.read(func() {
		for _, pr := range r.s.requests {
			if pr.Status == models.StatusApproved && !pr.RequestedAt.Before(since) {
				n++
			}
		}
	})
	return n, nil
}

func (r *requestRepo) ListApprovedWithoutTransaction(_ context.Context, limit int) ([]models.PurchaseRequest, error) {
	out := []models.PurchaseRequest{}
	r.s.read(func() {
		recorded := make(map[int64]bool, len(r.s.transactions))
		for _, t := range r.s.transactions {
			if t.RequestID != nil {
				recorded[*t.RequestID] = true
			}
		}
		for _, pr := range r.s.requests {
			if pr.Status == models.StatusApproved && !recorded[pr.ID] {
				out = append(out, cloneRequest(pr))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TransactionRepository implementation ---------------------------------------

type transactionRepo struct {
	s    *Store
	inTx bool
}

func (r *transactionRepo) Create(_ context.Context, tx *models.Transaction) error {
	return r.s.write(r.inTx, func() error {
		if tx.RequestID != nil {
			for _, existing := range r.s.transactions {
				if existing.RequestID != nil && *existing.RequestID == *tx.RequestID {
					return apperrors.NewConflictError(apperrors.ErrConflict, "Transaction already recorded for this request")
				}
			}
		}
		if tx.Status == "" {
			tx.Status = models.TransactionStatusCompleted
		}
		tx.ID = r.s.nextIDLocked()
		r.s.transactions[tx.ID] = *tx
		return nil
	})
}

func (r *transactionRepo) filter(studentID int64, keep func(models.Transaction) bool) []models.Transaction {
	out := []models.Transaction{}
	r.s.read(func() {
		for _, t := range r.s.transactions {
			if t.StudentID == studentID && keep(t) {
				out = append(out, t)
			}
		}
	})
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(txs []models.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
}

func (r *transactionRepo) ListByStudent(_ context.Context, studentID int64, limit int) ([]models.Transaction, error) {
	out := r.filter(studentID, func(models.Transaction) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *transactionRepo) ListByStudentSince(_ context.Context, studentID int64, since time.Time) ([]models.Transaction, error) {
	return r.filter(studentID, func(t models.Transaction) bool { return !t.CreatedAt.Before(since) }), nil
}

func (r *transactionRepo) ListRecent(_ context.Context, limit int) ([]models.Transaction, error) {
	out := []models.Transaction{}
	r.s.read(func() {
		for _, t := range r.s.transactions {
			out = append(out, t)
		}
	})
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *transactionRepo) CountByRequest(_ context.Context, requestID int64) (int64, error) {
	var n int64
	r.s.read(func() {
		for _, t := range r.s.transactions {
			if t.RequestID != nil && *t.RequestID == requestID {
				n++
			}
		}
	})
	return n, nil
}

func (r *transactionRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func() { n = int64(len(r.s.transactions)) })
	return n, nil
}

// FarmRepository implementation ----------------------------------------------

type farmRepo struct {
	s    *Store
	inTx bool
}

func (r *farmRepo) Create(_ context.Context, farm *models.Farm) error {
	return r.s.write(r.inTx, func() error {
		for _, f := range r.s.farms {
			if strings.EqualFold(f.Email, farm.Email) {
				return apperrors.NewConflictError(apperrors.ErrConflict, "A farm with this email is already registered")
			}
			if f.FarmCode == farm.FarmCode {
				return apperrors.NewConflictError(apperrors.ErrConflict, "Farm code already in use")
			}
		}
		farm.ID = r.s.nextIDLocked()
		farm.UpdatedAt = farm.RegistrationDate
		r.s.farms[farm.ID] = *farm
		return nil
	})
}

// findLocked returns the stored farm with the given code; callers hold mu
func (r *farmRepo) findLocked(code string) (models.Farm, bool) {
	for _, f := range r.s.farms {
		if f.FarmCode == code {
			return f, true
		}
	}
	return models.Farm{}, false
}

func (r *farmRepo) GetByCode(_ context.Context, code string) (*models.Farm, error) {
	var out *models.Farm
	r.s.read(func() {
		if f, ok := r.findLocked(code); ok {
			out = &f
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("Farm not found")
	}
	return out, nil
}

func (r *farmRepo) EmailExists(_ context.Context, email string) (bool, error) {
	var exists bool
	r.s.read(func() {
		for _, f := range r.s.farms {
			if strings.EqualFold(f.Email, email) {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *farmRepo) List(_ context.Context, filter models.FarmFilter) ([]models.Farm, int64, error) {
	all := []models.Farm{}
	r.s.read(func() {
		for _, f := range r.s.farms {
			if filter.Status != "" && f.Status != filter.Status {
				continue
			}
			if filter.FarmType != "" && f.FarmType != filter.FarmType {
				continue
			}
			all = append(all, f)
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].RegistrationDate.Equal(all[j].RegistrationDate) {
			return all[i].RegistrationDate.After(all[j].RegistrationDate)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, filter.Page, filter.PageSize)
}

func (r *farmRepo) UpdateStatus(_ context.Context, code string, status models.FarmStatus, at time.Time) (*models.Farm, error) {
	var out *models.Farm
	err := r.s.write(r.inTx, func() error {
		f, ok := r.findLocked(code)
		if !ok {
			return apperrors.NewNotFoundError("Farm not found")
		}
		f.Status = status
		f.UpdatedAt = at
		r.s.farms[f.ID] = f
		out = &f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *farmRepo) Delete(_ context.Context, code string) error {
	return r.s.write(r.inTx, func() error {
		f, ok := r.findLocked(code)
		if !ok {
			return apperrors.NewNotFoundError("Farm not found")
		}
		for _, c := range r.s.credits {
			if c.FarmCode == code {
				return apperrors.NewConflictError(apperrors.ErrConflict, "Farm has carbon credits and cannot be deleted")
			}
		}
		delete(r.s.farms, f.ID)
		return nil
	})
}

func (r *farmRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func() { n = int64(len(r.s.farms)) })
	return n, nil
}

// CreditRepository implementation --------------------------------------------

type creditRepo struct {
	s    *Store
	inTx bool
}

func (r *creditRepo) Create(_ context.Context, credit *models.CarbonCredit) error {
	return r.s.write(r.inTx, func() error {
		found := false
		for _, f := range r.s.farms {
			if f.FarmCode == credit.FarmCode {
				found = true
				break
			}
		}
		if !found {
			return apperrors.NewNotFoundError("Farm not found")
		}
		credit.ID = r.s.nextIDLocked()
		credit.UpdatedAt = credit.CreatedAt
		r.s.credits[credit.ID] = *credit
		return nil
	})
}

func (r *creditRepo) GetByID(_ context.Context, id int64) (*models.CarbonCredit, error) {
	var out *models.CarbonCredit
	r.s.read(func() {
		if c, ok := r.s.credits[id]; ok {
			out = &c
		}
	})
	if out == nil {
		return nil, apperrors.NewNotFoundError("Carbon credit not found")
	}
	return out, nil
}

func (r *creditRepo) List(_ context.Context, filter models.CreditFilter) ([]models.CarbonCredit, int64, error) {
	all := []models.CarbonCredit{}
	r.s.read(func() {
		for _, c := range r.s.credits {
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			if filter.FarmCode != "" && c.FarmCode != filter.FarmCode {
				continue
			}
			all = append(all, c)
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, filter.Page, filter.PageSize)
}

func (r *creditRepo) Transition(_ context.Context, t models.CreditTransition) (*models.CarbonCredit, error) {
	if !domain.CanAdvanceCredit(t.From, t.To) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Cannot move a credit from %s to %s", t.From, t.To))
	}

	var out *models.CarbonCredit
	err := r.s.write(r.inTx, func() error {
		c, ok := r.s.credits[t.CreditID]
		if !ok {
			return apperrors.NewNotFoundError("Carbon credit not found")
		}
		if c.Status != t.From {
			return repositories.CreditConflict(c.Status)
		}
		at := t.At
		c.Status = t.To
		c.UpdatedAt = at
		switch t.To {
		case models.CreditStatusVerified:
			c.VerificationDate = &at
		case models.CreditStatusSold:
			c.SoldDate = &at
			c.SoldTo = t.SoldTo
		}
		r.s.credits[c.ID] = c
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *creditRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func() { n = int64(len(r.s.credits)) })
	return n, nil
}

// helpers ---------------------------------------------------------------------

// page slices one 1-based page out of an already sorted result
func page[T any](all []T, pageNum, size int) ([]T, int64, error) {
	_, size = helpers.CalculateOffsetLimit(pageNum, size)
	start, end := helpers.CalculateSliceIndices(pageNum, size, len(all))
	return all[start:end], int64(len(all)), nil
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneStudent(st models.Student) models.Student {
	st.Interests = append([]string{}, st.Interests...)
	st.CompletedCourses = append([]int64{}, st.CompletedCourses...)
	return st
}

func cloneCourse(c models.Course) models.Course {
	c.Tags = append([]string{}, c.Tags...)
	c.RecommendedForYears = append([]models.Year{}, c.RecommendedForYears...)
	return c
}

func cloneRequest(pr models.PurchaseRequest) models.PurchaseRequest {
	pr.Items = append([]models.PurchaseItem{}, pr.Items...)
	return pr
}
