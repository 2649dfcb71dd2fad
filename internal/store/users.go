package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mjhajdugaNext/messenger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserFilter selects users. Zero-valued fields do not constrain the query; a
// non-nil empty IDs slice matches nothing.
type UserFilter struct {
	IDs    []string
	Email  string
	Active *bool
}

// UserPatch lists the fields to overwrite. Nil fields are left unchanged.
type UserPatch struct {
	Email                *string
	Username             *string
	SecretHash           *string
	Active               *bool
	LastActive           *time.Time
	Friends              *models.IDSet
	FriendsWaitingRoom   *models.IDSet
	InSomeoneWaitingRoom *models.IDSet
}

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Find(ctx context.Context, f UserFilter) ([]models.User, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := s.scope(ctx, f).Order("created_at, id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("store: find users: %w", err)
	}
	return users, nil
}

func (s *Users) FindOne(ctx context.Context, f UserFilter) (*models.User, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return nil, nil
	}
	var u models.User
	err := s.scope(ctx, f).Order("created_at, id").First(&u).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find one user: %w", err)
	}
	return &u, nil
}

func (s *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find user %s: %w", id, err)
	}
	return &u, nil
}

func (s *Users) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("store: insert user: %w", err)
	}
	return s.FindByID(ctx, u.ID)
}

// UpdateByID applies patch and returns the post-update document.
func (s *Users) UpdateByID(ctx context.Context, id string, p UserPatch) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&u).Error; err != nil {
			return err
		}
		applyUserPatch(&u, p)
		return tx.Save(&u).Error
	})
	if absent(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: update user %s: %w", id, err)
	}
	return &u, nil
}

// ResetPresence marks every user still flagged active as inactive, stamping
// lastActive with at. It returns how many users were reset.
func (s *Users) ResetPresence(ctx context.Context, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("active = ?", true).
		Updates(map[string]any{"active": false, "last_active": at})
	if res.Error != nil {
		return 0, fmt.Errorf("store: reset presence: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Users) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: delete user %s: %w", id, err)
	}
	return u, nil
}

func (s *Users) scope(ctx context.Context, f UserFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	return q
}

func applyUserPatch(u *models.User, p UserPatch) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.SecretHash != nil {
		u.SecretHash = *p.SecretHash
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	if p.LastActive != nil {
		t := *p.LastActive
		u.LastActive = &t
	}
	if p.Friends != nil {
		u.Friends = p.Friends.Clone()
	}
	if p.FriendsWaitingRoom != nil {
		u.FriendsWaitingRoom = p.FriendsWaitingRoom.Clone()
	}
	if p.InSomeoneWaitingRoom != nil {
		u.InSomeoneWaitingRoom = p.InSomeoneWaitingRoom.Clone()
	}
}
