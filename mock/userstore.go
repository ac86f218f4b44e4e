package mock

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

type UserStore struct {
	db    map[int]*sketchnet.User
	maxID int
}

func (s *UserStore) Get(id int) (*sketchnet.User, error) {
	if s.db == nil {
		s.db = make(map[int]*sketchnet.User)
	}
	return s.db[id], nil
}

func (s *UserStore) GetByEmail(provider sketchnet.Provider, email string) (*sketchnet.User, error) {
	for _, user := range s.db {
		if user.Provider == provider && strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, nil
}

func (s *UserStore) GetByProviderID(provider sketchnet.Provider, providerUserID string) (*sketchnet.User, error) {
	for _, user := range s.db {
		if user.Provider == provider && user.ProviderUserID == providerUserID {
			return user, nil
		}
	}
	return nil, nil
}

func (s *UserStore) Upsert(user *sketchnet.User) error {
	if s.db == nil {
		s.db = make(map[int]*sketchnet.User)
	}

	for _, u := range s.db {
		if u.ID == user.ID {
			continue
		}
		if u.Provider == user.Provider && strings.EqualFold(u.Email, user.Email) {
			return errors.New(
				fmt.Sprintf("email %s is already registered with provider %s", user.Email, user.Provider),
				errors.Conflict(),
			)
		}
	}

	if user.ID <= 0 {
		s.maxID++
		user.ID = s.maxID
		user.CreatedAt = time.Now()
	}
	if user.ID > s.maxID {
		s.maxID = user.ID
	}
	user.UpdatedAt = time.Now()

	s.db[user.ID] = user
	return nil
}
