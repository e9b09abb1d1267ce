package view

import (
	"context"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/service/users"
	"github.com/Domenick1991/tourplanner/internal/session"
)

func NewAllUsers(bus changebus.Subscriber, svc users.UserUseCase, sess *session.Session, opts ...Option) *Collection[domain.User] {
	fetch := func(ctx context.Context) ([]domain.User, error) {
		return svc.ListUsers(ctx, sess)
	}
	return NewCollection("users", bus, fetch, []changebus.Channel{changebus.Users}, opts...)
}

func NewAdmins(bus changebus.Subscriber, svc users.UserUseCase, sess *session.Session, opts ...Option) *Collection[domain.User] {
	fetch := func(ctx context.Context) ([]domain.User, error) {
		return svc.ListAdmins(ctx, sess)
	}
	return NewCollection("admins", bus, fetch, []changebus.Channel{changebus.Users}, opts...)
}

// UserEditor is the administrator's search-by-id form for user profiles.
type UserEditor struct {
	*Detail[int64, domain.User]
	users  users.UserUseCase
	sess   *session.Session
	writes inflight
}

func NewUserEditor(bus changebus.Subscriber, svc users.UserUseCase, sess *session.Session, opts ...Option) *UserEditor {
	load := func(ctx context.Context, id int64) (*domain.User, error) {
		return svc.GetUser(ctx, sess, id)
	}
	return &UserEditor{
		Detail: NewDetail("user-editor", bus, load, []changebus.Channel{changebus.Users}, opts...),
		users:  svc,
		sess:   sess,
	}
}

func (v *UserEditor) Search(ctx context.Context, id int64) (*domain.User, error) {
	return v.Load(ctx, id)
}

// Save writes the editable profile fields of the displayed user. ID and type
// are kept from the displayed record.
func (v *UserEditor) Save(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	current, ok := v.Current()
	if !ok {
		return nil, ErrNothingSelected
	}

	release, err := v.writes.acquire("user", current.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := v.users.UpdateUser(ctx, v.sess, current.ID, update)
	if err != nil {
		v.fail(err)
		return nil, err
	}
	merged := *updated
	merged.ID, merged.Type = current.ID, current.Type
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = current.CreatedAt
	}
	if id, selected := v.Key(); selected && id == current.ID {
		v.show(current.ID, &merged)
	}
	return &merged, nil
}

// Delete removes the displayed user and clears the form.
func (v *UserEditor) Delete(ctx context.Context) (string, error) {
	current, ok := v.Current()
	if !ok {
		return "", ErrNothingSelected
	}

	release, err := v.writes.acquire("user", current.ID)
	if err != nil {
		return "", err
	}
	defer release()

	message, err := v.users.DeleteUser(ctx, v.sess, current.ID)
	if err != nil {
		v.fail(err)
		return "", err
	}
	if id, selected := v.Key(); selected && id == current.ID {
		v.clear()
	}
	return message, nil
}

// Profile is the signed-in account's own profile page. Administrators read
// theirs through the admin profile operation.
type Profile struct {
	*Detail[string, domain.User]
	users  users.UserUseCase
	sess   *session.Session
	writes inflight
}

func NewProfile(bus changebus.Subscriber, svc users.UserUseCase, sess *session.Session, opts ...Option) *Profile {
	load := func(ctx context.Context, _ string) (*domain.User, error) {
		return svc.Profile(ctx, sess)
	}
	if sess.IsAdmin() {
		load = func(ctx context.Context, _ string) (*domain.User, error) {
			return svc.AdminProfile(ctx, sess)
		}
	}
	p := &Profile{
		Detail: NewDetail("profile", bus, load, []changebus.Channel{changebus.Users}, opts...),
		users:  svc,
		sess:   sess,
	}
	p.selectKey(sess.Subject)
	return p
}

// Save updates the caller's city and phone number.
func (v *Profile) Save(ctx context.Context, update domain.ContactUpdate) (*domain.User, error) {
	email := v.email()
	release, err := v.writes.acquire("profile", email)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := v.users.UpdateProfile(ctx, v.sess, email, update)
	if err != nil {
		v.fail(err)
		return nil, err
	}
	merged := *updated
	if current, ok := v.Current(); ok {
		merged.FirstName = firstNonEmpty(merged.FirstName, current.FirstName)
		merged.LastName = firstNonEmpty(merged.LastName, current.LastName)
		merged.NationalID = firstNonEmpty(merged.NationalID, current.NationalID)
		merged.Email = firstNonEmpty(merged.Email, current.Email)
		if merged.Type == "" {
			merged.Type = current.Type
		}
		if merged.ID == 0 {
			merged.ID = current.ID
		}
	}
	v.show(v.sess.Subject, &merged)
	return &merged, nil
}

// Delete removes the caller's account. The session is revoked by the service.
func (v *Profile) Delete(ctx context.Context) (string, error) {
	email := v.email()
	release, err := v.writes.acquire("profile", email)
	if err != nil {
		return "", err
	}
	defer release()

	message, err := v.users.DeleteSelf(ctx, v.sess, email)
	if err != nil {
		v.fail(err)
		return "", err
	}
	v.clear()
	return message, nil
}

// email is the displayed address, or the session subject before the profile
// has loaded.
func (v *Profile) email() string {
	if current, ok := v.Current(); ok && current.Email != "" {
		return current.Email
	}
	return v.sess.Subject
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
