package bolt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"

	"github.com/bobinette/sketchnet"
	"github.com/bobinette/sketchnet/errors"
)

var (
	userBucket = []byte("users")

	// Secondary indexes enforcing the (provider, email) and
	// (provider, provider user id) uniqueness. Both map to a user id.
	userEmailBucket    = []byte("user_emails")
	userProviderBucket = []byte("user_providers")
)

type UserStore struct {
	Driver *Driver
}

func (s *UserStore) Get(id int) (*sketchnet.User, error) {
	var user *sketchnet.User
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		user = &sketchnet.User{}
		return json.Unmarshal(data, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserStore) GetByEmail(provider sketchnet.Provider, email string) (*sketchnet.User, error) {
	return s.getByIndex(userEmailBucket, emailKey(provider, email))
}

func (s *UserStore) GetByProviderID(provider sketchnet.Provider, providerUserID string) (*sketchnet.User, error) {
	return s.getByIndex(userProviderBucket, providerKey(provider, providerUserID))
}

func (s *UserStore) getByIndex(index, key []byte) (*sketchnet.User, error) {
	var user *sketchnet.User
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(index).Get(key)
		if id == nil {
			return nil
		}

		data := tx.Bucket(userBucket).Get(id)
		if data == nil {
			return nil
		}

		user = &sketchnet.User{}
		return json.Unmarshal(data, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Upsert inserts or updates a user, maintaining the email and provider
// indexes. It fails with a conflict when the (provider, email) pair is
// already taken by another user.
func (s *UserStore) Upsert(user *sketchnet.User) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)
		emails := tx.Bucket(userEmailBucket)
		providers := tx.Bucket(userProviderBucket)

		var previous *sketchnet.User
		if user.ID > 0 {
			if data := bucket.Get(itob(user.ID)); data != nil {
				previous = &sketchnet.User{}
				if err := json.Unmarshal(data, previous); err != nil {
					return err
				}
			}
		}

		if user.ID <= 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("error incrementing id: %v", err)
			}
			user.ID = int(id)
			user.CreatedAt = time.Now()
		}
		user.UpdatedAt = time.Now()

		key := emailKey(user.Provider, user.Email)
		if existing := emails.Get(key); existing != nil && btoi(existing) != user.ID {
			return errors.New(
				fmt.Sprintf("email %s is already registered with provider %s", user.Email, user.Provider),
				errors.Conflict(),
			)
		}

		if previous != nil {
			oldKey := emailKey(previous.Provider, previous.Email)
			if string(oldKey) != string(key) {
				if err := emails.Delete(oldKey); err != nil {
					return err
				}
			}
		}
		if err := emails.Put(key, itob(user.ID)); err != nil {
			return err
		}

		if user.ProviderUserID != "" {
			pKey := providerKey(user.Provider, user.ProviderUserID)
			if existing := providers.Get(pKey); existing != nil && btoi(existing) != user.ID {
				return errors.New(
					fmt.Sprintf("provider account %s is already linked", user.ProviderUserID),
					errors.Conflict(),
				)
			}
			if err := providers.Put(pKey, itob(user.ID)); err != nil {
				return err
			}
		}

		data, err := json.Marshal(user)
		if err != nil {
			return err
		}

		return bucket.Put(itob(user.ID), data)
	})
}

func emailKey(provider sketchnet.Provider, email string) []byte {
	return []byte(fmt.Sprintf("%s:%s", provider, strings.ToLower(email)))
}

func providerKey(provider sketchnet.Provider, providerUserID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", provider, providerUserID))
}
