package services

import (
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
)

// In-memory stores backing the service tests. They mimic the repository
// contracts, including the sentinel errors gorm would return.

type memberKey struct {
	GroupID uint
	UserID  uint
}

type fakeMemberStore struct {
	mu      sync.Mutex
	members map[memberKey]*models.GroupMember
	groups  *fakeGroupStore
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{members: make(map[memberKey]*models.GroupMember)}
}

func (s *fakeMemberStore) Get(groupID, userID uint) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMemberStore) AddWithCount(member *models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// (group_id, user_id) 唯一索引
	if _, ok := s.members[memberKey{member.GroupID, member.UserID}]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *member
	s.members[memberKey{member.GroupID, member.UserID}] = &cp
	if s.groups != nil {
		if g, ok := s.groups.byID[member.GroupID]; ok {
			g.MemberCount++
		}
	}
	return nil
}

func (s *fakeMemberStore) RemoveWithCount(groupID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{groupID, userID}
	if _, ok := s.members[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.members, key)
	if s.groups != nil {
		if g, ok := s.groups.byID[groupID]; ok {
			g.MemberCount--
		}
	}
	return nil
}

func (s *fakeMemberStore) UpdateRole(groupID, userID uint, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Role = role
	return nil
}

func (s *fakeMemberStore) TransferAdmin(groupID, oldAdminID, newAdminID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldAdmin, ok := s.members[memberKey{groupID, oldAdminID}]
	if !ok || oldAdmin.Role != models.RoleAdmin {
		return gorm.ErrRecordNotFound
	}
	target, ok := s.members[memberKey{groupID, newAdminID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	oldAdmin.Role = models.RoleModerator
	target.Role = models.RoleAdmin
	return nil
}

func (s *fakeMemberStore) List(groupID uint, limit, offset int) ([]models.GroupMember, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.GroupMember
	for _, m := range s.members {
		if m.GroupID == groupID {
			all = append(all, *m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].JoinedAt.Before(all[j].JoinedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *fakeMemberStore) ListGroupIDs(userID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for _, m := range s.members {
		if m.UserID == userID && m.Role != models.RoleBanned {
			ids = append(ids, m.GroupID)
		}
	}
	return ids, nil
}

type fakeGroupStore struct {
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]*models.Group
	members *fakeMemberStore
}

func newFakeGroupStore(members *fakeMemberStore) *fakeGroupStore {
	s := &fakeGroupStore{byID: make(map[uint]*models.Group), members: members}
	members.groups = s
	return s
}

func (s *fakeGroupStore) CreateWithAdmin(group *models.Group) error {
	s.mu.Lock()
	s.nextID++
	group.ID = s.nextID
	group.CreatedAt = time.Now()
	cp := *group
	s.byID[group.ID] = &cp
	s.mu.Unlock()

	// the real store does this in one transaction
	s.members.mu.Lock()
	s.members.members[memberKey{group.ID, group.CreatorID}] = &models.GroupMember{
		GroupID:  group.ID,
		UserID:   group.CreatorID,
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
	}
	s.members.mu.Unlock()
	return nil
}

func (s *fakeGroupStore) GetByID(id uint) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *fakeGroupStore) GetByJoinCode(code string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.byID {
		if g.JoinCode == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeGroupStore) JoinCodeExists(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.byID {
		if g.JoinCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeGroupStore) Update(group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *group
	s.byID[group.ID] = &cp
	return nil
}

func (s *fakeGroupStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *fakeGroupStore) GetUserGroups(userID uint, limit, offset int) ([]models.Group, int64, error) {
	ids, _ := s.members.ListGroupIDs(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Group
	for _, id := range ids {
		if g, ok := s.byID[id]; ok {
			all = append(all, *g)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uint]*models.User)}
}

func (s *fakeUserStore) Create(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.UserName == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) ExistsByUserName(username string) (bool, error) {
	_, err := s.GetByUsername(username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (s *fakeUserStore) ExistsByEmail(email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Update(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

type ratingKey struct {
	GroupID uint
	Date    string
	UserID  uint
}

type fakeRatingStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.Rating
	byKey  map[ratingKey]uint
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{
		byID:  make(map[uint]*models.Rating),
		byKey: make(map[ratingKey]uint),
	}
}

func (s *fakeRatingStore) Create(rating *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingKey{rating.GroupID, rating.RatingDate, rating.UserID}
	if _, ok := s.byKey[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	s.nextID++
	rating.ID = s.nextID
	rating.CreatedAt = time.Now()
	cp := *rating
	s.byID[rating.ID] = &cp
	s.byKey[key] = rating.ID
	return nil
}

func (s *fakeRatingStore) GetByID(id uint) (*models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeRatingStore) Update(rating *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[rating.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// only the song fields are mutable
	stored.TrackID = rating.TrackID
	stored.TrackName = rating.TrackName
	stored.TrackArtist = rating.TrackArtist
	stored.TrackURL = rating.TrackURL
	return nil
}

func (s *fakeRatingStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.byKey, ratingKey{r.GroupID, r.RatingDate, r.UserID})
	delete(s.byID, id)
	return nil
}

func (s *fakeRatingStore) ListByGroup(groupID uint, from, to string) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rating
	for _, r := range s.byID {
		if r.GroupID == groupID && r.RatingDate >= from && r.RatingDate <= to {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RatingDate < out[j].RatingDate })
	return out, nil
}

func (s *fakeRatingStore) ListByUser(userID uint, from, to string) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rating
	for _, r := range s.byID {
		if r.UserID == userID && r.RatingDate >= from && r.RatingDate <= to {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RatingDate < out[j].RatingDate })
	return out, nil
}

type fakeEventSender struct {
	mu     sync.Mutex
	keys   []string
	events []any
}

func (s *fakeEventSender) SendMessage(key string, message any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.events = append(s.events, message)
	return nil
}

func (s *fakeEventSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fakeSnapshotStore struct {
	mu      sync.Mutex
	batches [][]models.AnalyticsSnapshot
}

func (s *fakeSnapshotStore) CreateBatch(snapshots []models.AnalyticsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, snapshots)
	return nil
}

func (s *fakeSnapshotStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}
