// Package memstore keeps users and tasks in process memory. It backs
// STORE=memory for local development and the HTTP tests, and enforces the
// same uniqueness and ownership constraints as the SQL schema.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/tasks"
)

// Store is a mutex-guarded in-memory implementation of auth.UserStore and tasks.Store.
type Store struct {
	txMu sync.Mutex // held by a transaction for its whole duration, and by every write outside one

	mu     sync.RWMutex
	users  map[int64]models.User
	tasks  map[int64]models.Task
	userID int64
	taskID int64
	now    func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users: make(map[int64]models.User),
		tasks: make(map[int64]models.Task),
		now:   time.Now,
	}
}

// FindByName returns the user with name, or nil.
func (s *Store) FindByName(ctx context.Context, name string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, nil
}

// FindByID returns the user with id, or nil.
func (s *Store) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Create inserts a user; a taken name is a conflict.
func (s *Store) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			return nil, apperr.Conflict("USER_NAME_TAKEN", "user already exists")
		}
	}
	s.userID++
	u := models.User{ID: s.userID, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: s.now()}
	s.users[u.ID] = u
	return &u, nil
}

// deleteUser removes a user and, like the SQL foreign key, every task it owns.
func (s *Store) deleteUser(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return timeout(err)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for tid, t := range s.tasks {
		if t.OwnerID == id {
			delete(s.tasks, tid)
		}
	}
	return nil
}

// Tasks returns the task-side view of the store.
func (s *Store) Tasks() tasks.Store {
	return taskView{s: s}
}

type taskView struct {
	s    *Store
	inTx bool
}

func (v taskView) lockWrite() func() {
	if v.inTx {
		return func() {}
	}
	v.s.txMu.Lock()
	return v.s.txMu.Unlock
}

func (v taskView) Create(ctx context.Context, ownerID int64, in models.NewTask) (*models.Task, error) {
	defer v.lockWrite()()
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[ownerID]; !ok {
		return nil, apperr.NotFound("TASK_OWNER_NOT_FOUND", "user not found")
	}
	s.taskID++
	now := s.now()
	t := models.Task{
		ID:          s.taskID,
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
		Completed:   in.Completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[t.ID] = t
	return &t, nil
}

func (v taskView) ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	s := v.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v taskView) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	t, ok := v.s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (v taskView) FindOwned(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	t, err := v.FindByID(ctx, id)
	if err != nil || t == nil || t.OwnerID != ownerID {
		return nil, err
	}
	return t, nil
}

func (v taskView) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	defer v.lockWrite()()
	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[task.ID]
	if !ok || cur.OwnerID != task.OwnerID {
		return nil, nil
	}
	updated := *task
	updated.CreatedAt = cur.CreatedAt
	updated.UpdatedAt = s.now()
	s.tasks[updated.ID] = updated
	return &updated, nil
}

func (v taskView) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	defer v.lockWrite()()
	if err := ctx.Err(); err != nil {
		return false, timeout(err)
	}
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok || cur.OwnerID != ownerID {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

// InTx snapshots the task table and restores it if fn fails.
func (v taskView) InTx(ctx context.Context, fn func(tasks.Store) error) error {
	if v.inTx {
		return fn(v)
	}
	s := v.s
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[int64]models.Task, len(s.tasks))
	for k, t := range s.tasks {
		snapshot[k] = t
	}
	seq := s.taskID
	s.mu.RUnlock()

	if err := fn(taskView{s: s, inTx: true}); err != nil {
		s.mu.Lock()
		s.tasks = snapshot
		s.taskID = seq
		s.mu.Unlock()
		return err
	}
	return nil
}

func timeout(err error) error {
	return apperr.Storage(oops.Code("MEMSTORE_ABORTED"), err)
}
