package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"codequiz/internal/models"
)

func (s *Store) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := load(ctx, s, s.keys.Users, emptyOf[models.User])
	return nonNil(users), err
}

func (s *Store) SaveUsers(ctx context.Context, users []models.User) error {
	return s.mutate(func() error {
		return s.put(ctx, s.keys.Users, "users", nonNil(users))
	})
}

// GetUser looks a user up by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, bool, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// FindUser matches username and password exactly. ok is false when no
// account matches.
func (s *Store) FindUser(ctx context.Context, username, password string) (models.User, bool, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.Username == username && u.Password == password {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// CreateUser registers a regular account. ok is false when the username is
// already taken.
func (s *Store) CreateUser(ctx context.Context, username, password string) (models.User, bool, error) {
	var (
		user    models.User
		created bool
	)
	err := s.mutate(func() error {
		users, err := s.GetUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Username == username {
				return nil
			}
		}
		user = models.User{
			ID:        "user-" + uuid.NewString(),
			Username:  username,
			Password:  password,
			CreatedAt: s.now().UTC(),
		}
		created = true
		return s.put(ctx, s.keys.Users, "users", append(users, user))
	})
	if err != nil || !created {
		return models.User{}, false, err
	}
	return user, true, nil
}

// CreateGuestUser adds a passwordless guest account named Guest_XXXX.
func (s *Store) CreateGuestUser(ctx context.Context) (models.User, error) {
	var guest models.User
	err := s.mutate(func() error {
		users, err := s.GetUsers(ctx)
		if err != nil {
			return err
		}
		taken := make(map[string]bool, len(users))
		for _, u := range users {
			taken[u.Username] = true
		}
		name := guestName()
		for taken[name] {
			name = guestName()
		}
		guest = models.User{
			ID:        "guest-" + uuid.NewString(),
			Username:  name,
			IsGuest:   true,
			CreatedAt: s.now().UTC(),
		}
		return s.put(ctx, s.keys.Users, "users", append(users, guest))
	})
	return guest, err
}

func guestName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "Guest_" + strings.ToUpper(id[:4])
}

// DeleteUser removes the user together with all of their quiz results.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.mutate(func() error {
		users, err := s.GetUsers(ctx)
		if err != nil {
			return err
		}
		results, err := s.GetResults(ctx)
		if err != nil {
			return err
		}
		keptUsers := users[:0]
		for _, u := range users {
			if u.ID != id {
				keptUsers = append(keptUsers, u)
			}
		}
		keptResults := results[:0]
		for _, r := range results {
			if r.UserID != id {
				keptResults = append(keptResults, r)
			}
		}
		if err := s.put(ctx, s.keys.Users, "users", keptUsers); err != nil {
			return err
		}
		return s.put(ctx, s.keys.Results, "results", keptResults)
	})
}
