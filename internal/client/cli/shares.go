package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/simpleshare/internal/client/models"
	"github.com/dmitrijs2005/simpleshare/internal/client/providers"
	"github.com/dmitrijs2005/simpleshare/internal/client/services"
	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
	"github.com/dmitrijs2005/simpleshare/internal/filex"
)

const (
	maxFileSize = 10 << 20
	previewLen  = 40
)

// Send shares text with the owner of a phone number. Without text on the
// command line the body is read until an empty line.
func (a *App) Send(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if len(args) < 1 {
		return usageError("send <phone> [text]")
	}

	text := joinArgs(args[1:])
	if text == "" {
		var err error
		if text, err = GetMultiline(a.reader, "Enter text", a.out); err != nil {
			return err
		}
	}
	if text == "" {
		return usageError("send <phone> [text]")
	}

	return a.sendShare(ctx, args[0], models.Share{Type: models.ShareTypeText, TextContent: text})
}

// SendFile encrypts and uploads a file, then shares it.
func (a *App) SendFile(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if len(args) != 2 {
		return usageError("sendfile <phone> <path>")
	}

	st, err := os.Stat(args[1])
	if err != nil {
		return err
	}
	if st.IsDir() || st.Size() > maxFileSize {
		return fmt.Errorf("%s: not a regular file of at most %d MiB", args[1], maxFileSize>>20)
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	att, err := a.db.UploadAttachment(ctx, filepath.Base(args[1]), data)
	if err != nil {
		return err
	}

	return a.sendShare(ctx, args[0], models.Share{Type: models.ShareTypeFile, Attachment: att})
}

func (a *App) sendShare(ctx context.Context, phone string, sh models.Share) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	to, err := a.db.LookupUser(ctx, phone)
	if err != nil {
		if providers.IsNotFound(err) {
			return fmt.Errorf("no user with phone number %s", phone)
		}
		return err
	}

	toProfile, err := a.recipientProfile(ctx, to.UID)
	if err != nil {
		return err
	}

	sh.FromUID = u.UID
	sh.FromProfileID = a.defaultProfileID()
	sh.ToUID = to.UID
	sh.ToProfileID = toProfile

	if _, err := a.db.SendShare(ctx, sh); err != nil {
		return err
	}

	a.toast(toaster.KindInfo, "Sent to %s", userLabel(to))
	return nil
}

// recipientProfile reads the recipient's default profile from the provider
// directly so the signed-in user's public slice is left alone.
func (a *App) recipientProfile(ctx context.Context, uid string) (string, error) {
	p := a.db.Provider()
	if p == nil {
		return "", &services.NotInitializedError{Service: "DatabaseService"}
	}

	pub, err := p.GetPublicInfo(ctx, uid)
	if err != nil {
		if providers.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return pub.DefaultProfileID, nil
}

// sortedShares returns received shares newest first. List positions used by
// open and delshare refer to this order.
func (a *App) sortedShares() []models.Share {
	shares := a.store.Shares()
	slices.SortStableFunc(shares, func(x, y models.Share) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	return shares
}

func (a *App) findShare(arg string) (models.Share, bool) {
	shares := a.sortedShares()
	ids := make([]string, len(shares))
	for i, sh := range shares {
		ids[i] = sh.ID
	}
	id, ok := pick(arg, ids)
	if !ok {
		return models.Share{}, false
	}
	return shares[slices.Index(ids, id)], true
}

func preview(sh models.Share) string {
	if sh.Type == models.ShareTypeFile && sh.Attachment != nil {
		return sh.Attachment.FileName
	}
	text := strings.Join(strings.Fields(sh.TextContent), " ")
	if len(text) > previewLen {
		text = text[:previewLen] + "..."
	}
	return text
}

func (a *App) Shares(ctx context.Context) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}

	shares := a.sortedShares()
	if len(shares) == 0 {
		a.printf("No shares\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFROM\tTYPE\tRECEIVED\tCONTENT\t")
	for i, sh := range shares {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", i+1, shortID(sh.FromUID), sh.Type,
			sh.CreatedAt.Local().Format("2006-01-02 15:04"), preview(sh))
	}
	return w.Flush()
}

// Open prints a text share or decrypts a file share into the downloads
// directory.
func (a *App) Open(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("open <#|id>")
	}

	sh, ok := a.findShare(args[0])
	if !ok {
		return &providers.DatabaseError{Code: providers.DatabaseNotFound}
	}

	if sh.Type != models.ShareTypeFile {
		a.printf("From %s at %s:\n%s\n", shortID(sh.FromUID), sh.CreatedAt.Local().Format("2006-01-02 15:04"), sh.TextContent)
		return nil
	}

	data, err := a.db.DownloadAttachment(ctx, sh)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureDir(filepath.Join(a.config.DataDir, downloadsDir))
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.Base(sh.Attachment.FileName))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	a.printf("Saved %s\n", path)
	return nil
}

func (a *App) DelShare(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("delshare <#|id>")
	}

	sh, ok := a.findShare(args[0])
	if !ok {
		return &providers.DatabaseError{Code: providers.DatabaseNotFound}
	}
	if _, err := a.db.DeleteShare(ctx, sh.ID); err != nil {
		return err
	}

	a.toast(toaster.KindInfo, "Share deleted")
	return nil
}
