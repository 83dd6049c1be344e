package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
)

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// pick resolves a 1-based list position or an id against ids.
func pick(arg string, ids []string) (string, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(ids) {
			return ids[n-1], true
		}
		return "", false
	}
	for _, id := range ids {
		if id == arg {
			return id, true
		}
	}
	return "", false
}

func (a *App) profileByID(id string) (models.Profile, bool) {
	if id == "" {
		return models.Profile{}, false
	}
	for _, p := range a.store.Profiles() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Profile{}, false
}

func (a *App) defaultProfileID() string {
	if pub := a.store.PublicInfo(); pub != nil {
		return pub.DefaultProfileID
	}
	return ""
}

func (a *App) Profiles(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	profiles, err := a.db.GetProfiles(ctx, u.UID)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		a.printf("No profiles yet, add one with 'addprofile <name>'\n")
		return nil
	}

	def := a.defaultProfileID()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tID\t")
	for i, p := range profiles {
		name := p.Name
		if p.ID == def {
			name += " *"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", i+1, name, shortID(p.ID))
	}
	return w.Flush()
}

// AddProfile creates a profile. The first profile becomes the default one
// shares are addressed to.
func (a *App) AddProfile(ctx context.Context, args []string) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	name := joinArgs(args)
	if name == "" {
		return usageError("addprofile <name>")
	}
	if len(a.store.Profiles()) >= models.MaxProfiles {
		return errProfileLimit
	}

	p, err := a.db.AddProfile(ctx, u.UID, name)
	if err != nil {
		return err
	}

	if _, ok := a.profileByID(a.defaultProfileID()); !ok {
		if err := a.setDefaultProfile(ctx, u.UID, p.ID); err != nil {
			return err
		}
	}
	if err := a.updateCompleteness(ctx, u.UID); err != nil {
		return err
	}

	a.toast(toaster.KindInfo, "Profile %s added", p.Name)
	return nil
}

func (a *App) DelProfile(ctx context.Context, args []string) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("delprofile <#|id>")
	}

	profiles := a.store.Profiles()
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	id, ok := pick(args[0], ids)
	if !ok {
		return &providers.DatabaseError{Code: providers.DatabaseNotFound}
	}

	if _, err := a.db.DeleteProfile(ctx, id); err != nil {
		return err
	}

	if id == a.defaultProfileID() {
		next := ""
		if rest := a.store.Profiles(); len(rest) > 0 {
			next = rest[0].ID
		}
		if err := a.setDefaultProfile(ctx, u.UID, next); err != nil {
			return err
		}
	}
	if err := a.updateCompleteness(ctx, u.UID); err != nil {
		return err
	}

	a.toast(toaster.KindInfo, "Profile deleted")
	return nil
}

func (a *App) setDefaultProfile(ctx context.Context, uid, id string) error {
	pub := models.PublicGeneralInfo{}
	if cur := a.store.PublicInfo(); cur != nil {
		pub = *cur
	}
	pub.DefaultProfileID = id
	_, err := a.db.SetPublicInfo(ctx, uid, pub)
	return err
}
