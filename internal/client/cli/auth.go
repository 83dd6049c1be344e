package cli

import (
	"context"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
	"github.com/dmitrijs2005/simpleshare/internal/common"
)

// getSimpleText and getPasscode are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPasscode = GetPasscode

func userLabel(u *models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return shortID(u.UID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *App) requireUser() (*models.User, error) {
	u := a.store.User()
	if u == nil {
		return nil, errNotSignedIn
	}
	return u, nil
}

// SignIn asks for a phone number and passcode. An unknown number creates an
// account. On success the session is loaded and share updates start.
//
// The passcode is wiped before returning.
func (a *App) SignIn(ctx context.Context) error {
	if u := a.store.User(); u != nil {
		a.printf("Already signed in as %s\n", userLabel(u))
		return nil
	}

	prefs := a.store.Preferences()
	phone, err := getSimpleText(a.reader, "Enter phone number", prefs.LastPhoneNumber, a.out)
	if err != nil {
		return err
	}
	if phone == "" {
		return usageError("signin, then enter a phone number like +15550001")
	}

	passcode, err := getPasscode(a.out)
	if err != nil {
		return &providers.AuthError{Code: providers.AuthCancelled, Err: err}
	}
	defer common.WipeByteArray(passcode)

	u, err := a.auth.SignIn(ctx, phone, passcode)
	if err != nil {
		return err
	}

	prefs.LastPhoneNumber = phone
	a.store.SetPreferences(prefs)

	if err := a.loadSession(ctx, u, phone); err != nil {
		a.logger.Warn(ctx, "load session", "uid", u.UID, "error", err)
		a.toast(toaster.KindWarn, "Signed in, but loading your data failed: %s", describe(err))
		return nil
	}

	a.toast(toaster.KindInfo, "Signed in as %s", userLabel(u))
	return nil
}

// loadSession fetches the account documents, creating them on first use,
// then the profiles, and starts the share listener.
func (a *App) loadSession(ctx context.Context, u *models.User, phone string) error {
	if _, err := a.db.GetAccountInfo(ctx, u.UID); err != nil {
		if !providers.IsNotFound(err) {
			return err
		}
		if _, err := a.db.SetAccountInfo(ctx, u.UID, models.AccountInfo{PhoneNumber: phone}); err != nil {
			return err
		}
	}

	if _, err := a.db.GetPublicInfo(ctx, u.UID); err != nil {
		if !providers.IsNotFound(err) {
			return err
		}
		if _, err := a.db.SetPublicInfo(ctx, u.UID, models.PublicGeneralInfo{DisplayName: u.DisplayName}); err != nil {
			return err
		}
	}

	if _, err := a.db.GetProfiles(ctx, u.UID); err != nil {
		return err
	}

	return a.startListening(ctx, u.UID)
}

func (a *App) SignOut(ctx context.Context) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	a.toast(toaster.KindInfo, "Signed out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	a.printf("UID:      %s\n", u.UID)
	if info := a.store.AccountInfo(); info != nil {
		a.printf("Phone:    %s\n", info.PhoneNumber)
		a.printf("Complete: %t\n", info.IsAccountComplete)
	}
	if pub := a.store.PublicInfo(); pub != nil {
		name := pub.DisplayName
		if name == "" {
			name = "(not set)"
		}
		a.printf("Name:     %s\n", name)
		if p, ok := a.profileByID(pub.DefaultProfileID); ok {
			a.printf("Default:  %s\n", p.Name)
		}
	}
	a.printf("Profiles: %d/%d\n", len(a.store.Profiles()), models.MaxProfiles)
	a.printf("Shares:   %d\n", len(a.store.Shares()))
	return nil
}

// SetName updates the public display name.
func (a *App) SetName(ctx context.Context, args []string) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	name := joinArgs(args)
	if name == "" {
		if name, err = getSimpleText(a.reader, "Enter display name", "", a.out); err != nil {
			return err
		}
	}
	if name == "" {
		return usageError("setname <name>")
	}

	pub := models.PublicGeneralInfo{}
	if cur := a.store.PublicInfo(); cur != nil {
		pub = *cur
	}
	pub.DisplayName = name
	pub.IsComplete = true

	if _, err := a.db.SetPublicInfo(ctx, u.UID, pub); err != nil {
		return err
	}
	a.store.SetUser(&models.User{UID: u.UID, DisplayName: name})

	if err := a.updateCompleteness(ctx, u.UID); err != nil {
		return err
	}
	a.toast(toaster.KindInfo, "Display name set to %s", name)
	return nil
}

// updateCompleteness marks the account complete once it has a display name
// and at least one profile.
func (a *App) updateCompleteness(ctx context.Context, uid string) error {
	info := a.store.AccountInfo()
	pub := a.store.PublicInfo()
	if info == nil || pub == nil {
		return nil
	}

	complete := pub.DisplayName != "" && len(a.store.Profiles()) > 0
	if info.IsAccountComplete == complete {
		return nil
	}

	next := *info
	next.IsAccountComplete = complete
	_, err := a.db.SetAccountInfo(ctx, uid, next)
	return err
}

// startListening replaces the current share listener. Shares that exist
// when it starts are loaded silently; later ones raise a toast.
func (a *App) startListening(ctx context.Context, uid string) error {
	a.listenMu.Lock()
	defer a.listenMu.Unlock()

	a.stopListeningLocked()
	return a.listen(ctx, uid, false)
}

// resumeListening restarts the share listener of a signed-in user after it
// stopped on its own. Shares that arrived in the meantime raise a toast and
// shares deleted in the meantime leave the store.
func (a *App) resumeListening(ctx context.Context) {
	u := a.store.User()
	if u == nil {
		return
	}

	a.listenMu.Lock()
	defer a.listenMu.Unlock()

	a.mu.Lock()
	active := a.listener != nil
	a.mu.Unlock()
	if active {
		return
	}

	if err := a.listen(ctx, u.UID, true); err != nil {
		a.logger.Warn(ctx, "resume share listener", "error", err)
		return
	}
	a.toast(toaster.KindInfo, "Share updates resumed")
}

// listen must be called with listenMu held. Handlers run one at a time on
// the listener's goroutine, so synced and seen need no locking.
func (a *App) listen(ctx context.Context, uid string, resumed bool) error {
	known := make(map[string]bool)
	if resumed {
		for _, sh := range a.store.Shares() {
			known[sh.ID] = true
		}
	}

	a.mu.Lock()
	a.listenGen++
	gen := a.listenGen
	a.mu.Unlock()

	synced := false
	seen := make(map[string]bool)
	failed := false // guarded by a.mu

	l, err := a.db.ListenShares(ctx, uid, providers.ShareHandlers{
		OnAdd: func(sh models.Share) {
			if !synced {
				seen[sh.ID] = true
			}
			if synced || (resumed && !known[sh.ID]) {
				a.toast(toaster.KindInfo, "New %s share from %s", sh.Type, shortID(sh.FromUID))
			}
		},
		OnSynced: func() {
			synced = true
			for id := range known {
				if !seen[id] {
					a.store.RemoveShare(id)
				}
			}
		},
		OnError: func(err error) {
			a.mu.Lock()
			failed = true
			current := a.listenGen == gen
			if current {
				a.listener = nil
			}
			a.mu.Unlock()
			if current {
				a.toast(toaster.KindError, "Share updates stopped: %s", describe(err))
			}
		},
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.listenGen == gen && !failed {
		a.listener = l
	}
	a.mu.Unlock()
	return nil
}

func (a *App) stopListening() {
	a.listenMu.Lock()
	defer a.listenMu.Unlock()
	a.stopListeningLocked()
}

func (a *App) stopListeningLocked() {
	a.mu.Lock()
	l := a.listener
	a.listener = nil
	a.listenGen++
	a.mu.Unlock()

	if l == nil {
		return
	}
	if err := a.db.RemoveListener(l); err != nil {
		a.logger.Warn(context.Background(), "remove share listener", "error", err)
	}
}
