package service

import (
	"context"
	"sort"
	"time"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/repository"

	"gorm.io/gorm"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

// In-memory fakes mirroring the repository contracts so the service
// layer can be tested without Postgres or Redis.

type pairKey struct {
	messageID uint
	userID    uint
}

type fakeMessageRepo struct {
	nextID   uint
	messages map[uint]*model.Message
	hides    map[pairKey]bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		nextID:   1,
		messages: make(map[uint]*model.Message),
		hides:    make(map[pairKey]bool),
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = r.nextID
	r.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	clone := *msg
	r.messages[msg.ID] = &clone
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uint) (*model.Message, error) {
	msg, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	clone := *msg
	return &clone, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, id uint, at time.Time) (bool, error) {
	msg, ok := r.messages[id]
	if !ok || msg.ReadAt != nil {
		return false, nil
	}
	msg.ReadAt = &at
	return true, nil
}

func (r *fakeMessageRepo) Hide(ctx context.Context, messageID, userID uint) error {
	r.hides[pairKey{messageID, userID}] = true
	return nil
}

func (r *fakeMessageRepo) DeleteForEveryone(ctx context.Context, id uint, at time.Time) error {
	msg, ok := r.messages[id]
	if !ok {
		return nil
	}
	msg.Body = ""
	msg.AttachmentURL = ""
	msg.AttachmentName = ""
	msg.AttachmentSize = 0
	msg.AttachmentType = ""
	msg.DeletedForEveryone = true
	msg.DeletedAt = &at
	return nil
}

func (r *fakeMessageRepo) ListBetween(ctx context.Context, viewerID, partnerID uint, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range r.messages {
		between := (msg.SenderID == viewerID && msg.RecipientID == partnerID) ||
			(msg.SenderID == partnerID && msg.RecipientID == viewerID)
		if !between || r.hides[pairKey{msg.ID, viewerID}] {
			continue
		}
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeMessageRepo) ListPartners(ctx context.Context, userID uint) ([]repository.PartnerAggregate, error) {
	byPartner := make(map[uint]*repository.PartnerAggregate)
	for _, msg := range r.messages {
		if !msg.IsParticipant(userID) || r.hides[pairKey{msg.ID, userID}] {
			continue
		}
		partnerID := msg.SenderID
		if partnerID == userID {
			partnerID = msg.RecipientID
		}
		agg, ok := byPartner[partnerID]
		if !ok {
			agg = &repository.PartnerAggregate{PartnerID: partnerID}
			byPartner[partnerID] = agg
		}
		agg.Total++
		if msg.RecipientID == userID && msg.ReadAt == nil && !msg.DeletedForEveryone {
			agg.Unread++
		}
		if msg.CreatedAt.After(agg.LastAt) {
			agg.LastAt = msg.CreatedAt
			agg.LastBody = msg.Body
			agg.LastDeleted = msg.DeletedForEveryone
		}
	}
	var out []repository.PartnerAggregate
	for _, agg := range byPartner {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	return out, nil
}

func (r *fakeMessageRepo) UnreadCount(ctx context.Context, userID, partnerID uint) (int64, error) {
	var count int64
	for _, msg := range r.messages {
		if msg.SenderID != partnerID || msg.RecipientID != userID {
			continue
		}
		if msg.ReadAt != nil || msg.DeletedForEveryone || r.hides[pairKey{msg.ID, userID}] {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeMessageRepo) HideAllBetween(ctx context.Context, userID, partnerID uint, cutoff time.Time) error {
	for _, msg := range r.messages {
		between := (msg.SenderID == userID && msg.RecipientID == partnerID) ||
			(msg.SenderID == partnerID && msg.RecipientID == userID)
		if between && !msg.CreatedAt.After(cutoff) {
			r.hides[pairKey{msg.ID, userID}] = true
		}
	}
	return nil
}

type fakeAttachmentRepo struct {
	attachments map[string]*model.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]*model.Attachment)}
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, att *model.Attachment) error {
	clone := *att
	r.attachments[att.ID] = &clone
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	att, ok := r.attachments[id]
	if !ok {
		return nil, nil
	}
	clone := *att
	return &clone, nil
}

type fakeUnreadCache struct {
	values      map[[2]uint]int64
	invalidated int
}

func newFakeUnreadCache() *fakeUnreadCache {
	return &fakeUnreadCache{values: make(map[[2]uint]int64)}
}

func (c *fakeUnreadCache) Get(ctx context.Context, userID, partnerID uint) (int64, bool, error) {
	count, ok := c.values[[2]uint{userID, partnerID}]
	return count, ok, nil
}

func (c *fakeUnreadCache) Set(ctx context.Context, userID, partnerID uint, count int64) error {
	c.values[[2]uint{userID, partnerID}] = count
	return nil
}

func (c *fakeUnreadCache) Invalidate(ctx context.Context, userID, partnerID uint) error {
	delete(c.values, [2]uint{userID, partnerID})
	c.invalidated++
	return nil
}

type fakeUserRepo struct {
	users map[uint]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]*model.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByIDs(ids []uint) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UsernameExists(username string) (bool, error) {
	_, err := r.FindByUsername(username)
	return err == nil, nil
}

func (r *fakeUserRepo) Search(prompt string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}
