// Package storetest provides an in-memory implementation of the account and
// portfolio repositories for service and handler tests. Documents are kept as
// BSON so that dotted and positional field paths behave as they do in
// MongoDB.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemoryStore struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID][]byte
	userOrder  []primitive.ObjectID
	portfolios map[primitive.ObjectID][]byte

	// FailPortfolioInsert makes CreatePortfolio fail with this error.
	FailPortfolioInsert error
	// StaleAppends makes the next n guarded appends report a changed list.
	StaleAppends int
	// Patches records every portfolio patch in call order.
	Patches []models.FieldPatch
}

var (
	_ models.UserRepo      = (*MemoryStore)(nil)
	_ models.PortfolioRepo = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      map[primitive.ObjectID][]byte{},
		portfolios: map[primitive.ObjectID][]byte{},
	}
}

func decodeUser(raw []byte) *models.User {
	var u models.User
	if err := bson.Unmarshal(raw, &u); err != nil {
		panic(err)
	}
	return &u
}

func decodePortfolio(raw []byte) *models.Portfolio {
	var p models.Portfolio
	if err := bson.Unmarshal(raw, &p); err != nil {
		panic(err)
	}
	p.Normalize()
	return &p
}

func mustMarshal(v interface{}) []byte {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func toDoc(raw []byte) bson.M {
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		panic(err)
	}
	return doc
}

// Accounts

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, raw := range s.users {
		existing := decodeUser(raw)
		if existing.Email == user.Email {
			return nil, models.Conflict("email already in use")
		}
		if existing.Username == user.Username {
			return nil, models.Conflict("username already taken")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = mustMarshal(user)
	s.userOrder = append(s.userOrder, user.ID)
	return user, nil
}

func (s *MemoryStore) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range s.users {
		if u := decodeUser(raw); match(u) {
			return u, nil
		}
	}
	return nil, models.NotFound("user not found")
}

func (s *MemoryStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.ID == id })
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *MemoryStore) UpdateUser(_ context.Context, id primitive.ObjectID, patch models.FieldPatch) (*models.User, error) {
	if patch.IsEmpty() {
		return nil, models.ValidationFailed("no fields to update")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.users[id]
	if !ok {
		return nil, models.NotFound("user not found")
	}
	for otherID, otherRaw := range s.users {
		if otherID == id {
			continue
		}
		other := decodeUser(otherRaw)
		if v, ok := patch.Set["email"]; ok && v == other.Email {
			return nil, models.Conflict("email already in use")
		}
		if v, ok := patch.Set["username"]; ok && v == other.Username {
			return nil, models.Conflict("username already taken")
		}
	}

	doc := toDoc(raw)
	applyPatch(doc, patch)
	s.users[id] = mustMarshal(doc)
	return decodeUser(s.users[id]), nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUserLocked(id)
}

func (s *MemoryStore) deleteUserLocked(id primitive.ObjectID) error {
	if _, ok := s.users[id]; !ok {
		return models.NotFound("user not found")
	}
	delete(s.users, id)
	for i, existing := range s.userOrder {
		if existing == id {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context, filter models.UserFilter) ([]*models.UserWithPortfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.UserWithPortfolio{}
	for _, id := range s.userOrder {
		u := decodeUser(s.users[id])
		if filter.Verified != nil && u.Verified != *filter.Verified {
			continue
		}
		u.Password = ""
		u.VerificationCode = ""
		u.ResetPasswordToken = ""
		entry := &models.UserWithPortfolio{User: *u}
		if raw, ok := s.portfolios[id]; ok {
			p := decodePortfolio(raw)
			entry.Portfolio = &models.PortfolioSummary{
				ID:              p.ID,
				HeroTitle:       p.HeroTitle,
				AboutTitle:      p.AboutTitle,
				ProjectCount:    len(p.Projects),
				ExperienceCount: len(p.Experiences),
				EducationCount:  len(p.Education),
				UpdatedAt:       p.UpdatedAt,
			}
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteUserWithPortfolio(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteUserLocked(id); err != nil {
		return err
	}
	delete(s.portfolios, id)
	return nil
}

// Portfolios

func (s *MemoryStore) CreatePortfolio(_ context.Context, portfolio *models.Portfolio) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPortfolioInsert != nil {
		return nil, s.FailPortfolioInsert
	}
	if _, ok := s.portfolios[portfolio.User]; ok {
		return nil, models.Conflict("portfolio already exists for this account")
	}
	if portfolio.ID.IsZero() {
		portfolio.ID = primitive.NewObjectID()
	}
	portfolio.Normalize()
	s.portfolios[portfolio.User] = mustMarshal(portfolio)
	return portfolio, nil
}

func (s *MemoryStore) GetPortfolioByUser(_ context.Context, userID primitive.ObjectID) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.portfolios[userID]
	if !ok {
		return nil, models.NotFound("portfolio not found")
	}
	return decodePortfolio(raw), nil
}

func (s *MemoryStore) PatchPortfolio(_ context.Context, userID primitive.ObjectID, patch models.FieldPatch) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.portfolios[userID]
	if !ok {
		return nil, models.NotFound("portfolio not found")
	}
	s.Patches = append(s.Patches, patch)
	doc := toDoc(raw)
	applyPatch(doc, patch)
	doc["updatedAt"] = time.Now().UTC()
	s.portfolios[userID] = mustMarshal(doc)
	return decodePortfolio(s.portfolios[userID]), nil
}

func (s *MemoryStore) AppendSubdocument(_ context.Context, userID primitive.ObjectID, section models.Section, item interface{}, expectedLen int) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.portfolios[userID]
	if !ok {
		return nil, models.NotFound("portfolio not found")
	}
	doc := toDoc(raw)
	list := asArray(doc[section.Field])
	if expectedLen >= 0 {
		if s.StaleAppends > 0 {
			s.StaleAppends--
			return nil, models.ErrSectionChanged
		}
		if len(list) != expectedLen {
			return nil, models.ErrSectionChanged
		}
	}
	doc[section.Field] = append(list, item)
	doc["updatedAt"] = time.Now().UTC()
	s.portfolios[userID] = mustMarshal(doc)
	return decodePortfolio(s.portfolios[userID]), nil
}

func (s *MemoryStore) indexOf(doc bson.M, section models.Section, itemID primitive.ObjectID) int {
	for i, el := range asArray(doc[section.Field]) {
		if idOf(el) == itemID {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) ReplaceSubdocument(_ context.Context, userID primitive.ObjectID, section models.Section, itemID primitive.ObjectID, patch models.FieldPatch) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.portfolios[userID]
	if !ok {
		return nil, models.NotFound("portfolio not found")
	}
	doc := toDoc(raw)
	idx := s.indexOf(doc, section, itemID)
	if idx < 0 {
		return nil, models.NotFound(section.Label + " not found")
	}
	positional := models.NewFieldPatch()
	prefix := fmt.Sprintf("%s.%d.", section.Field, idx)
	for k, v := range patch.Set {
		positional.Set[prefix+k] = v
	}
	for _, k := range patch.Unset {
		positional.Unset = append(positional.Unset, prefix+k)
	}
	applyPatch(doc, positional)
	doc["updatedAt"] = time.Now().UTC()
	s.portfolios[userID] = mustMarshal(doc)
	return decodePortfolio(s.portfolios[userID]), nil
}

func (s *MemoryStore) RemoveSubdocument(_ context.Context, userID primitive.ObjectID, section models.Section, itemID primitive.ObjectID) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.portfolios[userID]
	if !ok {
		return nil, models.NotFound("portfolio not found")
	}
	doc := toDoc(raw)
	idx := s.indexOf(doc, section, itemID)
	if idx < 0 {
		return nil, models.NotFound(section.Label + " not found")
	}
	list := asArray(doc[section.Field])
	doc[section.Field] = append(list[:idx:idx], list[idx+1:]...)
	doc["updatedAt"] = time.Now().UTC()
	s.portfolios[userID] = mustMarshal(doc)
	return decodePortfolio(s.portfolios[userID]), nil
}

func (s *MemoryStore) DeletePortfolio(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.portfolios[userID]; !ok {
		return models.NotFound("portfolio not found")
	}
	delete(s.portfolios, userID)
	return nil
}

// RawPortfolio exposes the stored document so tests can assert on keys
// that the typed model hides, such as an absent link.
func (s *MemoryStore) RawPortfolio(userID primitive.ObjectID) bson.M {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.portfolios[userID]
	if !ok {
		return nil
	}
	return toDoc(raw)
}

// Document path helpers

func applyPatch(doc bson.M, patch models.FieldPatch) {
	for k, v := range patch.Set {
		setPath(doc, strings.Split(k, "."), v)
	}
	for _, k := range patch.Unset {
		unsetPath(doc, strings.Split(k, "."))
	}
}

func asArray(v interface{}) primitive.A {
	switch t := v.(type) {
	case primitive.A:
		return t
	case []interface{}:
		return primitive.A(t)
	}
	return primitive.A{}
}

func idOf(el interface{}) primitive.ObjectID {
	var id interface{}
	switch t := el.(type) {
	case bson.M:
		id = t["_id"]
	case primitive.D:
		id = t.Map()["_id"]
	}
	oid, _ := id.(primitive.ObjectID)
	return oid
}

func child(container interface{}, key string) interface{} {
	switch t := container.(type) {
	case bson.M:
		return t[key]
	case primitive.D:
		for _, e := range t {
			if e.Key == key {
				return e.Value
			}
		}
	case primitive.A:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(t) {
			return t[i]
		}
	}
	return nil
}

func assign(container interface{}, key string, value interface{}) interface{} {
	switch t := container.(type) {
	case bson.M:
		t[key] = value
		return t
	case primitive.D:
		for i := range t {
			if t[i].Key == key {
				t[i].Value = value
				return t
			}
		}
		return append(t, primitive.E{Key: key, Value: value})
	case primitive.A:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(t) {
			t[i] = value
		}
		return t
	}
	return bson.M{key: value}
}

func setPath(container interface{}, path []string, value interface{}) interface{} {
	if len(path) == 1 {
		return assign(container, path[0], value)
	}
	next := child(container, path[0])
	if next == nil {
		next = bson.M{}
	}
	return assign(container, path[0], setPath(next, path[1:], value))
}

func unsetPath(container interface{}, path []string) interface{} {
	if len(path) == 1 {
		switch t := container.(type) {
		case bson.M:
			delete(t, path[0])
			return t
		case primitive.D:
			out := t[:0]
			for _, e := range t {
				if e.Key != path[0] {
					out = append(out, e)
				}
			}
			return out
		}
		return container
	}
	next := child(container, path[0])
	if next == nil {
		return container
	}
	return assign(container, path[0], unsetPath(next, path[1:]))
}

// IsNotFound is a small convenience for table tests.
func IsNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Kind == models.KindNotFound
}
