// Package store is the client's central state. Each slice is mutated only
// through Store methods; every mutation takes the lock, changes the slice,
// releases the lock and then tells subscribers which slice changed.
package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
)

// Slice names passed to listeners and used as persistence keys.
const (
	SliceAuth        = "auth"
	SliceAccount     = "account"
	SliceProfile     = "profile"
	SliceShare       = "share"
	SliceToaster     = "toaster"
	SlicePreferences = "preferences"
)

// Slices lists every slice name.
var Slices = []string{SliceAuth, SliceAccount, SliceProfile, SliceShare, SliceToaster, SlicePreferences}

type AuthState struct {
	User *models.User `json:"user,omitempty"`
}

type AccountState struct {
	Info   *models.AccountInfo       `json:"info,omitempty"`
	Public *models.PublicGeneralInfo `json:"public,omitempty"`
}

type ProfileState struct {
	Profiles []models.Profile `json:"profiles"`
}

// ShareState holds the shares addressed to the signed-in user, in the
// order they arrived.
type ShareState struct {
	Shares []models.Share `json:"shares"`
}

type State struct {
	Auth        AuthState          `json:"auth"`
	Account     AccountState       `json:"account"`
	Profile     ProfileState       `json:"profile"`
	Share       ShareState         `json:"share"`
	Toaster     toaster.State      `json:"toaster"`
	Preferences models.Preferences `json:"preferences"`
}

func (s State) clone() State {
	if s.Auth.User != nil {
		u := *s.Auth.User
		s.Auth.User = &u
	}
	if s.Account.Info != nil {
		v := *s.Account.Info
		s.Account.Info = &v
	}
	if s.Account.Public != nil {
		v := *s.Account.Public
		s.Account.Public = &v
	}
	s.Profile.Profiles = slices.Clone(s.Profile.Profiles)
	s.Share.Shares = slices.Clone(s.Share.Shares)
	s.Toaster = s.Toaster.Clone()
	return s
}

// Listener is called with the name of the slice that changed. It runs on
// the mutating goroutine after the lock is released.
type Listener func(slice string)

type Store struct {
	mu    sync.RWMutex
	state State

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int
}

func New() *Store {
	return &Store{subs: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(slice string) {
	s.subMu.Lock()
	fns := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(slice)
	}
}

func (s *Store) update(slice string, fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.emit(slice)
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) User() *models.User {
	return s.Snapshot().Auth.User
}

func (s *Store) AccountInfo() *models.AccountInfo {
	return s.Snapshot().Account.Info
}

func (s *Store) PublicInfo() *models.PublicGeneralInfo {
	return s.Snapshot().Account.Public
}

func (s *Store) Profiles() []models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Profile.Profiles)
}

func (s *Store) Shares() []models.Share {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Share.Shares)
}

func (s *Store) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Preferences
}

// SetUser replaces the signed-in user; nil means signed out.
func (s *Store) SetUser(u *models.User) {
	if u != nil {
		v := *u
		u = &v
	}
	s.update(SliceAuth, func(st *State) { st.Auth.User = u })
}

func (s *Store) SetAccountInfo(info models.AccountInfo) {
	s.update(SliceAccount, func(st *State) { st.Account.Info = &info })
}

func (s *Store) SetPublicInfo(info models.PublicGeneralInfo) {
	s.update(SliceAccount, func(st *State) { st.Account.Public = &info })
}

func (s *Store) SetProfiles(profiles []models.Profile) {
	profiles = slices.Clone(profiles)
	s.update(SliceProfile, func(st *State) { st.Profile.Profiles = profiles })
}

func (s *Store) UpsertProfile(p models.Profile) {
	s.update(SliceProfile, func(st *State) {
		i := slices.IndexFunc(st.Profile.Profiles, func(x models.Profile) bool { return x.ID == p.ID })
		if i >= 0 {
			st.Profile.Profiles[i] = p
			return
		}
		st.Profile.Profiles = append(st.Profile.Profiles, p)
	})
}

func (s *Store) RemoveProfile(id string) {
	s.update(SliceProfile, func(st *State) {
		st.Profile.Profiles = slices.DeleteFunc(st.Profile.Profiles, func(x models.Profile) bool { return x.ID == id })
	})
}

func (s *Store) SetShares(shares []models.Share) {
	shares = slices.Clone(shares)
	s.update(SliceShare, func(st *State) { st.Share.Shares = shares })
}

func (s *Store) UpsertShare(sh models.Share) {
	s.update(SliceShare, func(st *State) {
		i := slices.IndexFunc(st.Share.Shares, func(x models.Share) bool { return x.ID == sh.ID })
		if i >= 0 {
			st.Share.Shares[i] = sh
			return
		}
		st.Share.Shares = append(st.Share.Shares, sh)
	})
}

func (s *Store) RemoveShare(id string) {
	s.update(SliceShare, func(st *State) {
		st.Share.Shares = slices.DeleteFunc(st.Share.Shares, func(x models.Share) bool { return x.ID == id })
	})
}

func (s *Store) SetPreferences(p models.Preferences) {
	s.update(SlicePreferences, func(st *State) { st.Preferences = p })
}

// ClearSession empties every slice that belongs to the signed-in user.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.state.Auth = AuthState{}
	s.state.Account = AccountState{}
	s.state.Profile = ProfileState{}
	s.state.Share = ShareState{}
	s.mu.Unlock()

	for _, slice := range []string{SliceAuth, SliceAccount, SliceProfile, SliceShare} {
		s.emit(slice)
	}
}

// Toaster returns the toast queue backed by the toaster slice.
func (s *Store) Toaster() toaster.Queue {
	return toasterSlice{s}
}

type toasterSlice struct {
	s *Store
}

func (t toasterSlice) Push(kind toaster.Kind, message string, duration int) {
	t.s.update(SliceToaster, func(st *State) { st.Toaster.Push(kind, message, duration) })
}

func (t toasterSlice) SetTimer(id int, active bool) {
	t.s.update(SliceToaster, func(st *State) { st.Toaster.SetTimer(id, active) })
}

func (t toasterSlice) Age(id int) {
	t.s.update(SliceToaster, func(st *State) { st.Toaster.Age(id) })
}

func (t toasterSlice) Dismiss(id int) {
	t.s.update(SliceToaster, func(st *State) { st.Toaster.Dismiss(id) })
}

func (t toasterSlice) Toasts() []toaster.Toast {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.state.Toaster.Toasts()
}

func (st *State) slice(name string) (any, error) {
	switch name {
	case SliceAuth:
		return &st.Auth, nil
	case SliceAccount:
		return &st.Account, nil
	case SliceProfile:
		return &st.Profile, nil
	case SliceShare:
		return &st.Share, nil
	case SliceToaster:
		return &st.Toaster, nil
	case SlicePreferences:
		return &st.Preferences, nil
	}
	return nil, fmt.Errorf("unknown slice %q", name)
}

// MarshalSlice encodes one slice as JSON.
func (s *Store) MarshalSlice(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, err := s.state.slice(name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// LoadSlice replaces one slice with decoded JSON and notifies subscribers.
func (s *Store) LoadSlice(name string, data []byte) error {
	var next State
	v, err := next.slice(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode slice %s: %w", name, err)
	}

	s.mu.Lock()
	cur, _ := s.state.slice(name)
	switch p := cur.(type) {
	case *AuthState:
		*p = next.Auth
	case *AccountState:
		*p = next.Account
	case *ProfileState:
		*p = next.Profile
	case *ShareState:
		*p = next.Share
	case *toaster.State:
		*p = next.Toaster
	case *models.Preferences:
		*p = next.Preferences
	}
	s.mu.Unlock()

	s.emit(name)
	return nil
}
