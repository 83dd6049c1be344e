package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/simpleshare/internal/client/client"
	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/services"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
)

var (
	errNotSignedIn  = errors.New("not signed in")
	errProfileLimit = errors.New("profile limit reached")
	errNoToast      = errors.New("no such toast")
)

// usageError is printed rather than toasted.
type usageError string

func (e usageError) Error() string {
	return "usage: " + string(e)
}

// toastSeconds picks the stored preference, then the configured value.
func (a *App) toastSeconds() int {
	if s := a.store.Preferences().DefaultToastSeconds; s > 0 {
		return s
	}
	if a.config.ToastSeconds > 0 {
		return a.config.ToastSeconds
	}
	return toaster.DefaultSeconds
}

func (a *App) toast(kind toaster.Kind, format string, args ...any) {
	seconds := a.toastSeconds()
	if kind == toaster.KindError {
		seconds *= 2
	}
	a.store.Toaster().Push(kind, fmt.Sprintf(format, args...), seconds)
}

// fail reports a command error to the user.
func (a *App) fail(err error) {
	var ue usageError
	if errors.As(err, &ue) {
		a.printf("Usage: %s\n", string(ue))
		return
	}
	a.logger.Debug(context.Background(), "command failed", "error", err)
	a.toast(toaster.KindError, "%s", describe(err))
}

func describe(err error) string {
	if code, ok := providers.AuthCode(err); ok {
		switch code {
		case providers.AuthInvalidCredentials:
			return "Wrong phone number or passcode"
		case providers.AuthAccountDisabled:
			return "This account has been disabled"
		case providers.AuthCancelled:
			return "Sign-in cancelled"
		}
	}

	switch {
	case errors.Is(err, errNotSignedIn):
		return "Sign in first"
	case errors.Is(err, errProfileLimit):
		return fmt.Sprintf("You can have at most %d profiles", models.MaxProfiles)
	case errors.Is(err, providers.ErrUnsupported):
		return "Not available with the local provider"
	case errors.Is(err, services.ErrNotInitialized):
		return "Not ready yet, try again"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable"
	case errors.Is(err, client.ErrForbidden):
		return "Not allowed"
	case providers.IsNotFound(err):
		return "Not found"
	}
	return err.Error()
}

// Toasts lists the queue. With an argument it also sets the lifetime of
// future toasts, in seconds.
func (a *App) Toasts(ctx context.Context, args []string) error {
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return usageError("toasts [seconds]")
		}
		prefs := a.store.Preferences()
		prefs.DefaultToastSeconds = n
		a.store.SetPreferences(prefs)
		a.printf("Toasts now stay for %ds\n", n)
	}

	toasts := a.store.Toaster().Toasts()
	if len(toasts) == 0 {
		a.printf("No toasts\n")
		return nil
	}
	for _, t := range toasts {
		a.printf("#%d [%s] %s (%ds left)\n", t.ID, t.Kind, t.Message, t.Duration)
	}
	return nil
}

func (a *App) Dismiss(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("dismiss <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError("dismiss <id>")
	}

	for _, t := range a.store.Toaster().Toasts() {
		if t.ID == id {
			a.driver.Dismiss(id)
			return nil
		}
	}
	return fmt.Errorf("%w: #%d", errNoToast, id)
}

// toastRenderer prints toasts as they appear and notes when they go away.
type toastRenderer struct {
	mu   sync.Mutex
	out  io.Writer
	seen map[int]struct{}
}

func newToastRenderer(out io.Writer) *toastRenderer {
	return &toastRenderer{out: out, seen: make(map[int]struct{})}
}

func (r *toastRenderer) render(toasts []toaster.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make(map[int]struct{}, len(toasts))
	for _, t := range toasts {
		if !t.Valid() {
			continue
		}
		live[t.ID] = struct{}{}
		if _, ok := r.seen[t.ID]; !ok {
			fmt.Fprintf(r.out, "\n[%s] %s (#%d)\n", t.Kind, t.Message, t.ID)
		}
	}

	for id := range r.seen {
		if _, ok := live[id]; !ok {
			fmt.Fprintf(r.out, "\n(toast #%d closed)\n", id)
		}
	}
	r.seen = live
}
