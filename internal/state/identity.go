package state

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"minihub/internal/domain"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Register adds a user and makes it the active session.
func (s *State) Register(reg domain.Registration) (domain.User, error) {
	verr := domain.NewValidationError()
	if strings.TrimSpace(reg.Username) == "" {
		verr.Add("username", "username is required")
	}
	if reg.Password == "" {
		verr.Add("password", "password is required")
	}
	if strings.TrimSpace(reg.Name) == "" {
		verr.Add("name", "name is required")
	}
	role := reg.Role
	if role == "" {
		role = domain.RoleBuyer
	}
	if role != domain.RoleBuyer && role != domain.RoleSeller {
		verr.Add("role", fmt.Sprintf("unknown role %q", reg.Role))
	}
	if err := verr.OrNil(); err != nil {
		return domain.User{}, err
	}

	for _, u := range s.Users {
		if u.Username == reg.Username {
			return domain.User{}, domain.ErrDuplicateUsername
		}
	}

	stored, err := s.Passwords.Hash(reg.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:       s.NewID(),
		Username: reg.Username,
		Password: stored,
		Name:     reg.Name,
		Email:    reg.Email,
		Role:     role,
		Avatar:   domain.DefaultAvatar,
		JoinDate: s.Now(),
		Rating:   domain.DefaultUserRating,
	}
	s.Users = append(s.Users, user)
	s.setSessionUser(user)
	return user, nil
}

// Login requires an exact username match and a password the hasher accepts.
func (s *State) Login(username, password string) (domain.User, error) {
	for _, u := range s.Users {
		if u.Username == username && s.Passwords.Matches(u.Password, password) {
			s.setSessionUser(u)
			return u, nil
		}
	}
	return domain.User{}, domain.ErrInvalidCredentials
}

// Logout drops the session user together with the cart and wishlist.
func (s *State) Logout() {
	s.Session.User = nil
	s.Cart = nil
	s.Wishlist = nil
}

// UpdateProfile replaces name, email, bio and avatar of the session user.
func (s *State) UpdateProfile(upd domain.ProfileUpdate) (domain.User, error) {
	if err := s.requireSession(); err != nil {
		return domain.User{}, err
	}

	verr := domain.NewValidationError()
	if strings.TrimSpace(upd.Name) == "" {
		verr.Add("name", "Name is required")
	}
	if strings.TrimSpace(upd.Email) == "" {
		verr.Add("email", "Email is required")
	} else if !emailPattern.MatchString(upd.Email) {
		verr.Add("email", "Email is invalid")
	}
	if upd.Avatar != "" && !isWebURL(upd.Avatar) {
		verr.Add("avatar", "Avatar must be a valid URL")
	}
	if err := verr.OrNil(); err != nil {
		return domain.User{}, err
	}

	i := s.userIndex(s.Session.User.ID)
	if i < 0 {
		return domain.User{}, fmt.Errorf("session user %s: %w", s.Session.User.ID, domain.ErrNotFound)
	}
	u := &s.Users[i]
	u.Name = upd.Name
	u.Email = upd.Email
	u.Bio = upd.Bio
	u.Avatar = upd.Avatar
	s.setSessionUser(*u)
	return *u, nil
}

// ChangePassword checks the current password first, then that both new
// entries agree, then the minimum length.
func (s *State) ChangePassword(current, next, confirm string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	i := s.userIndex(s.Session.User.ID)
	if i < 0 {
		return fmt.Errorf("session user %s: %w", s.Session.User.ID, domain.ErrNotFound)
	}
	if !s.Passwords.Matches(s.Users[i].Password, current) {
		return domain.ErrWrongCurrentPassword
	}
	if next != confirm {
		return domain.ErrPasswordMismatch
	}
	if len(next) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}

	stored, err := s.Passwords.Hash(next)
	if err != nil {
		return err
	}
	s.Users[i].Password = stored
	s.setSessionUser(s.Users[i])
	return nil
}

func (s *State) setSessionUser(u domain.User) {
	s.Session.User = &u
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
