package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/veritest/assessment-platform/internal/models"
	"github.com/veritest/assessment-platform/internal/repositories"
)

// In-memory repository used by the service tests.

type mockRepository struct {
	test       *mockTestRepo
	question   *mockQuestionRepo
	assignment *mockAssignmentRepo
	result     *mockResultRepo
	user       *mockUserRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		test:       &mockTestRepo{tests: map[uint]*models.Test{}},
		question:   &mockQuestionRepo{byTest: map[uint][]models.Question{}},
		assignment: &mockAssignmentRepo{byUser: map[string]map[uint]*models.UserTest{}},
		result:     &mockResultRepo{},
		user:       &mockUserRepo{},
	}
}

func (m *mockRepository) Test() repositories.TestRepository             { return m.test }
func (m *mockRepository) Question() repositories.QuestionRepository     { return m.question }
func (m *mockRepository) Assignment() repositories.AssignmentRepository { return m.assignment }
func (m *mockRepository) Result() repositories.ResultRepository         { return m.result }
func (m *mockRepository) User() repositories.UserRepository             { return m.user }
func (m *mockRepository) Dashboard() repositories.DashboardRepository   { return nil }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== TEST REPO =====

type mockTestRepo struct {
	tests  map[uint]*models.Test
	nextID uint
}

func (r *mockTestRepo) addTest(test *models.Test) *models.Test {
	if test.ID == 0 {
		r.nextID++
		test.ID = r.nextID
	}
	r.tests[test.ID] = test
	return test
}

func (r *mockTestRepo) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	r.addTest(test)
	return nil
}

func (r *mockTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	test, ok := r.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return test, nil
}

func (r *mockTestRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockTestRepo) Update(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	r.tests[test.ID] = test
	return nil
}

func (r *mockTestRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TestStatus) error {
	test, ok := r.tests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	test.Status = status
	return nil
}

func (r *mockTestRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.tests, id)
	return nil
}

func (r *mockTestRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	var out []*models.Test
	for _, test := range r.tests {
		if filters.Status != nil && test.Status != *filters.Status {
			continue
		}
		out = append(out, test)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockTestRepo) GetPublishedIDs(ctx context.Context, tx *gorm.DB) ([]uint, error) {
	var ids []uint
	for id, test := range r.tests {
		if test.Status == models.TestPublished {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *mockTestRepo) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	_, ok := r.tests[id]
	return ok, nil
}

func (r *mockTestRepo) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.TestStats, error) {
	return &repositories.TestStats{}, nil
}

// ===== QUESTION REPO =====

type mockQuestionRepo struct {
	byTest map[uint][]models.Question
	nextID uint
}

func (r *mockQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.nextID++
	question.ID = r.nextID
	r.byTest[question.TestID] = append(r.byTest[question.TestID], *question)
	return nil
}

func (r *mockQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		if err := r.Create(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	for _, questions := range r.byTest {
		for i := range questions {
			if questions[i].ID == id {
				return &questions[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockQuestionRepo) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error) {
	return r.byTest[testID], nil
}

func (r *mockQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	questions := r.byTest[question.TestID]
	for i := range questions {
		if questions[i].ID == question.ID {
			questions[i] = *question
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	for testID, questions := range r.byTest {
		for i := range questions {
			if questions[i].ID == id {
				r.byTest[testID] = append(questions[:i], questions[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockQuestionRepo) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	return int64(len(r.byTest[testID])), nil
}

// ===== ASSIGNMENT REPO =====

type mockAssignmentRepo struct {
	byUser  map[string]map[uint]*models.UserTest
	nextID  uint
	created int64 // running total across all calls
}

func (r *mockAssignmentRepo) CreateIgnoreConflicts(ctx context.Context, tx *gorm.DB, assignments []*models.UserTest) (int64, error) {
	var inserted int64
	for _, a := range assignments {
		if r.byUser[a.UserID] == nil {
			r.byUser[a.UserID] = map[uint]*models.UserTest{}
		}
		if _, exists := r.byUser[a.UserID][a.TestID]; exists {
			continue // conflict on (user_id, test_id): skipped
		}
		r.nextID++
		a.ID = r.nextID
		r.byUser[a.UserID][a.TestID] = a
		inserted++
	}
	r.created += inserted
	return inserted, nil
}

func (r *mockAssignmentRepo) GetByUserAndTest(ctx context.Context, tx *gorm.DB, userID string, testID uint) (*models.UserTest, error) {
	a, ok := r.byUser[userID][testID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *mockAssignmentRepo) GetTestIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]uint, error) {
	var ids []uint
	for id := range r.byUser[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *mockAssignmentRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AssignmentFilters) ([]*models.UserTest, int64, error) {
	var out []*models.UserTest
	for _, a := range r.byUser[userID] {
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestID < out[j].TestID })
	return out, int64(len(out)), nil
}

func (r *mockAssignmentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, userID string, testID uint, status models.AssignmentStatus) error {
	a, ok := r.byUser[userID][testID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	return nil
}

func (r *mockAssignmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	for _, tests := range r.byUser {
		for testID, a := range tests {
			if a.ID == id {
				delete(tests, testID)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

// ===== RESULT REPO =====

type mockResultRepo struct {
	results []*models.TestResult
	nextID  uint
	failing bool
}

func (r *mockResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	if r.failing {
		return fmt.Errorf("simulated insert failure")
	}
	r.nextID++
	result.ID = r.nextID
	r.results = append(r.results, result)
	return nil
}

func (r *mockResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestResult, error) {
	for _, result := range r.results {
		if result.ID == id {
			return result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockResultRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	var out []*models.TestResult
	for _, result := range r.results {
		if filters.UserID != nil && result.UserID != *filters.UserID {
			continue
		}
		if filters.TestID != nil && result.TestID != *filters.TestID {
			continue
		}
		out = append(out, result)
	}
	return out, int64(len(out)), nil
}

func (r *mockResultRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	filters.UserID = &userID
	return r.List(ctx, tx, filters)
}

func (r *mockResultRepo) GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	filters.TestID = &testID
	return r.List(ctx, tx, filters)
}

// ===== USER REPO =====

type mockUserRepo struct {
	users []*models.User
}

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	return r.users, int64(len(r.users)), nil
}

func (r *mockUserRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, user := range r.users {
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func (r *mockUserRepo) TouchLastLogin(ctx context.Context, id string) error {
	return nil
}
