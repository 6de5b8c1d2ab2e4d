package usecase

import (
	"context"

	"minihub/internal/domain"
	"minihub/internal/state"
)

func (m *Marketplace) Register(ctx context.Context, sess *state.Session, reg domain.Registration) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("Use Case: Attempting to register user '%s' with role '%s'", reg.Username, reg.Role)
	user, err := m.view(sess).Register(reg)
	if err != nil {
		return domain.User{}, m.fail(sess, "register", err, "")
	}

	m.persist(ctx, domain.SliceUsers, m.shared.Users)
	m.persistSessionUser(ctx, sess)
	m.log.Infof("Use Case: User '%s' registered with ID %s", user.Username, user.ID)
	m.succeed(sess, "Registration successful! Welcome to MiniHub!", domain.NotifySuccess)
	return user, nil
}

func (m *Marketplace) Login(ctx context.Context, sess *state.Session, username, password string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.view(sess).Login(username, password)
	if err != nil {
		return domain.User{}, m.fail(sess, "login for '"+username+"'", err, "")
	}

	m.persistSessionUser(ctx, sess)
	m.log.Infof("Use Case: User '%s' logged in", user.Username)
	m.succeed(sess, "Welcome back, "+user.Name+"!", domain.NotifySuccess)
	return user, nil
}

func (m *Marketplace) Logout(ctx context.Context, sess *state.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.view(sess).Logout()
	m.persistSessionUser(ctx, sess)
	m.persistCart(ctx, sess)
	m.persistWishlist(ctx, sess)
	if sess.Key != "" {
		delete(m.sessions, sess.Key)
	}
	m.log.Info("Use Case: Session logged out")
	m.succeed(sess, "Logged out successfully", domain.NotifyInfo)
}

// CurrentUser returns the session user, refreshed from the user table.
func (m *Marketplace) CurrentUser(sess *state.Session) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !sess.Authenticated() {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	for _, u := range m.shared.Users {
		if u.ID == sess.User.ID {
			return u, nil
		}
	}
	return *sess.User, nil
}

func (m *Marketplace) UpdateProfile(ctx context.Context, sess *state.Session, upd domain.ProfileUpdate) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.view(sess).UpdateProfile(upd)
	if err != nil {
		return domain.User{}, m.fail(sess, "profile update", err, "")
	}

	m.persist(ctx, domain.SliceUsers, m.shared.Users)
	m.persistSessionUser(ctx, sess)
	m.log.Infof("Use Case: Profile updated for user %s", user.ID)
	m.succeed(sess, "Profile updated successfully!", domain.NotifySuccess)
	return user, nil
}

func (m *Marketplace) ChangePassword(ctx context.Context, sess *state.Session, current, next, confirm string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.view(sess).ChangePassword(current, next, confirm); err != nil {
		return m.fail(sess, "password change", err, "")
	}

	m.persist(ctx, domain.SliceUsers, m.shared.Users)
	m.persistSessionUser(ctx, sess)
	m.log.Infof("Use Case: Password changed for user %s", sess.User.ID)
	m.succeed(sess, "Password changed successfully!", domain.NotifySuccess)
	return nil
}
