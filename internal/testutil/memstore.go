// Package testutil provee un almacén en memoria que implementa los puertos de
// repositorio y el TxRunner del ledger, con bloqueo por fila y escrituras
// diferidas hasta el commit. Solo para tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	materials map[string]*entity.Material
	movements []*entity.Movement
	users     map[string]*entity.User
	rowLocks  map[string]*sync.Mutex
	seq       int64

	// Inyección de fallos.
	failCommit     error
	conflicts      int
	failReads      error
	commitAttempts int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		materials: make(map[string]*entity.Material),
		users:     make(map[string]*entity.User),
		rowLocks:  make(map[string]*sync.Mutex),
	}
}

// FailCommit hace que todo commit posterior falle con err (nil lo desactiva).
func (s *Store) FailCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

// InjectConflicts hace que los próximos n UpdateStock devuelvan domain.ErrConflict.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// FailReads hace que las lecturas fuera de transacción fallen con err (nil lo desactiva).
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = err
}

// CommitAttempts número de commits intentados (exitosos o no).
func (s *Store) CommitAttempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commitAttempts
}

// SeedMaterial inserta un material directamente (sin movimiento). Devuelve su ID.
func (s *Store) SeedMaterial(code, name string, stock, threshold int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	m := &entity.Material{
		ID:               uuid.New().String(),
		Code:             code,
		Name:             name,
		Unit:             "unidades",
		Stock:            decimal.NewFromInt(stock),
		ReorderThreshold: decimal.NewFromInt(threshold),
		UnitPrice:        decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.materials[m.ID] = m
	return m.ID
}

// SeedUser inserta un usuario activo con los roles dados. Devuelve su ID.
func (s *Store) SeedUser(email string, roles ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u := &entity.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      email,
		Roles:     append([]string(nil), roles...),
		Status:    entity.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	return u.ID
}

// Stock stock actual confirmado del material.
func (s *Store) Stock(id string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.materials[id]; ok {
		return m.Stock
	}
	return decimal.Zero
}

// MovementsOf movimientos confirmados del material en orden del ledger (Seq ascendente).
func (s *Store) MovementsOf(materialID string) []*entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Movement
	for _, m := range s.movements {
		if m.MaterialID == materialID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// AddMovement inserta un movimiento confirmado sin tocar stock (fixtures de reportes).
func (s *Store) AddMovement(m *entity.Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	c := *m
	c.Seq = s.seq
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.movements = append(s.movements, &c)
}

func (s *Store) rowLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

func (s *Store) readErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failReads
}

// ─── Repositorios fuera de transacción ───────────────────────────────────────

// Materials repositorio de materiales sin transacción.
func (s *Store) Materials() repository.MaterialRepository { return &materialRepo{s: s} }

// Movements repositorio de movimientos sin transacción.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Reports repositorio de reportes.
func (s *Store) Reports() repository.ReportRepository { return &reportRepo{s: s} }

type materialRepo struct {
	s  *Store
	tx *memTx
}

var _ repository.MaterialRepository = (*materialRepo)(nil)

func (r *materialRepo) Create(_ context.Context, m *entity.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.materials {
		if x.Code == m.Code {
			return domain.ErrDuplicateCode
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	c := *m
	r.s.materials[m.ID] = &c
	return nil
}

func (r *materialRepo) get(id string) *entity.Material {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.materials[id]
	if !ok {
		return nil
	}
	c := *m
	if r.tx != nil {
		if st, ok := r.tx.stock[id]; ok {
			c.Stock = st
		}
	}
	return &c
}

func (r *materialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	if err := r.s.readErr(); err != nil && r.tx == nil {
		return nil, err
	}
	return r.get(id), nil
}

func (r *materialRepo) GetByCode(_ context.Context, code string) (*entity.Material, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.materials {
		if m.Code == code {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *materialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	if r.tx != nil {
		r.tx.lock(id)
	}
	return r.GetByID(ctx, id)
}

func (r *materialRepo) Update(_ context.Context, m *entity.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.materials[m.ID]
	if !ok {
		return domain.ErrMaterialNotFound
	}
	c := *m
	c.Stock = cur.Stock
	c.Code = cur.Code
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.s.materials[m.ID] = &c
	m.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *materialRepo) UpdateStock(_ context.Context, id string, expected, next decimal.Decimal) error {
	r.s.mu.Lock()
	if r.s.conflicts > 0 {
		r.s.conflicts--
		r.s.mu.Unlock()
		return domain.ErrConflict
	}
	cur, ok := r.s.materials[id]
	if !ok {
		r.s.mu.Unlock()
		return domain.ErrMaterialNotFound
	}
	current := cur.Stock
	r.s.mu.Unlock()
	if r.tx != nil {
		if st, ok := r.tx.stock[id]; ok {
			current = st
		}
	}
	if !current.Equal(expected) {
		return domain.ErrConflict
	}
	if r.tx == nil {
		r.s.mu.Lock()
		cur.Stock = next
		r.s.mu.Unlock()
		return nil
	}
	r.tx.stock[id] = next
	return nil
}

func (r *materialRepo) List(_ context.Context, f repository.MaterialFilter) ([]*entity.Material, int, error) {
	if err := r.s.readErr(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(f.Search)
	var all []*entity.Material
	for _, m := range r.s.materials {
		if search != "" && !strings.Contains(strings.ToLower(m.Code), search) &&
			!strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		if f.LowStockOnly && !m.IsLowStock() {
			continue
		}
		c := *m
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].Code < all[j].Code
	})
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r *materialRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.materials[id]; !ok {
		return domain.ErrMaterialNotFound
	}
	for _, mv := range r.s.movements {
		if mv.MaterialID == id {
			return domain.ErrMaterialInUse
		}
	}
	delete(r.s.materials, id)
	return nil
}

type movementRepo struct {
	s  *Store
	tx *memTx
}

var _ repository.MovementRepository = (*movementRepo)(nil)

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	if _, ok := r.s.materials[m.MaterialID]; !ok {
		r.s.mu.Unlock()
		return domain.ErrMaterialNotFound
	}
	r.s.seq++
	m.Seq = r.s.seq
	c := *m
	if r.tx == nil {
		r.s.movements = append(r.s.movements, &c)
		r.s.mu.Unlock()
		return nil
	}
	r.s.mu.Unlock()
	r.tx.movements = append(r.tx.movements, &c)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if f.MaterialID != "" && m.MaterialID != f.MaterialID {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !m.CreatedAt.Before(*f.To) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *movementRepo) ExistsForMaterial(_ context.Context, materialID string) (bool, error) {
	if err := r.s.readErr(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.MaterialID == materialID {
			return true, nil
		}
	}
	return false, nil
}

// ─── Transacciones ───────────────────────────────────────────────────────────

// TxRunner implementación en memoria del TxRunner del ledger.
type TxRunner struct{ s *Store }

// TxRunner devuelve un runner de transacciones sobre el almacén.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

type memTx struct {
	s         *Store
	held      map[string]*sync.Mutex
	stock     map[string]decimal.Decimal
	movements []*entity.Movement
}

func (t *memTx) lock(id string) {
	if _, ok := t.held[id]; ok {
		return
	}
	l := t.s.rowLock(id)
	l.Lock()
	t.held[id] = l
}

func (t *memTx) release() {
	for _, l := range t.held {
		l.Unlock()
	}
}

// Run ejecuta fn con repositorios atados a una transacción en memoria. Los bloqueos
// de fila tomados con GetForUpdate se mantienen hasta el commit o rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		s:     r.s,
		held:  make(map[string]*sync.Mutex),
		stock: make(map[string]decimal.Decimal),
	}
	defer tx.release()

	if err := fn(&materialRepo{s: r.s, tx: tx}, &movementRepo{s: r.s, tx: tx}); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.commitAttempts++
	if r.s.failCommit != nil {
		return fmt.Errorf("commit transaction: %w", r.s.failCommit)
	}
	for id, st := range tx.stock {
		if m, ok := r.s.materials[id]; ok {
			m.Stock = st
			m.UpdatedAt = time.Now().UTC()
		}
	}
	r.s.movements = append(r.s.movements, tx.movements...)
	return nil
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

var _ repository.UserRepository = (*userRepo)(nil)

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if strings.EqualFold(x.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	r.s.users[u.ID] = &c
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			c.Roles = append([]string(nil), u.Roles...)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.s.users[u.ID] = &c
	return nil
}

func (r *userRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	for _, u := range r.s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, limit, offset), nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) CountActive(_ context.Context) (int, error) {
	if err := r.s.readErr(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, u := range r.s.users {
		if u.IsActive() {
			n++
		}
	}
	return n, nil
}

// ─── Reportes ────────────────────────────────────────────────────────────────

type reportRepo struct{ s *Store }

var _ repository.ReportRepository = (*reportRepo)(nil)

func (r *reportRepo) CountMaterials(_ context.Context) (int, error) {
	if err := r.s.readErr(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.materials), nil
}

func (r *reportRepo) CountLowStock(ctx context.Context) (int, error) {
	list, err := r.ListLowStock(ctx, 0)
	return len(list), err
}

func (r *reportRepo) CountMovementsBetween(_ context.Context, start, end time.Time) (int, error) {
	if err := r.s.readErr(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, m := range r.s.movements {
		if !m.CreatedAt.Before(start) && m.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

func (r *reportRepo) ListLowStock(_ context.Context, limit int) ([]repository.LowStockResult, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []repository.LowStockResult
	for _, m := range r.s.materials {
		if !m.IsLowStock() {
			continue
		}
		out = append(out, repository.LowStockResult{
			MaterialID:       m.ID,
			Code:             m.Code,
			Name:             m.Name,
			Unit:             m.Unit,
			Stock:            m.Stock,
			ReorderThreshold: m.ReorderThreshold,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		di := out[i].ReorderThreshold.Sub(out[i].Stock)
		dj := out[j].ReorderThreshold.Sub(out[j].Stock)
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reportRepo) ListRecentActivity(_ context.Context, limit int) ([]repository.ActivityResult, error) {
	if err := r.s.readErr(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	movs := make([]*entity.Movement, len(r.s.movements))
	copy(movs, r.s.movements)
	sort.Slice(movs, func(i, j int) bool {
		if !movs[i].CreatedAt.Equal(movs[j].CreatedAt) {
			return movs[i].CreatedAt.After(movs[j].CreatedAt)
		}
		return movs[i].Seq > movs[j].Seq
	})
	if limit > 0 && len(movs) > limit {
		movs = movs[:limit]
	}
	out := make([]repository.ActivityResult, 0, len(movs))
	for _, m := range movs {
		a := repository.ActivityResult{
			MovementID: m.ID,
			Kind:       m.Kind,
			Quantity:   m.Quantity,
			Reason:     m.Reason,
			CreatedAt:  m.CreatedAt,
			MaterialID: m.MaterialID,
			CreatedBy:  m.CreatedBy,
		}
		if mat, ok := r.s.materials[m.MaterialID]; ok {
			a.MaterialCode, a.MaterialName, a.Unit = mat.Code, mat.Name, mat.Unit
		}
		if u, ok := r.s.users[m.CreatedBy]; ok {
			a.CreatedName = u.Name
		}
		out = append(out, a)
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
