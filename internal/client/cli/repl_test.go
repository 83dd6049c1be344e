package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	signedIn bool
	failWith error

	calls  []string
	args   [][]string
	failed []error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.failWith
}

func (f *fakeExec) isSignedIn() bool { return f.signedIn }
func (f *fakeExec) fail(err error) { f.failed = append(f.failed, err) }

func (f *fakeExec) SignIn(ctx context.Context) error {
	f.signedIn = true
	return f.record("signin", nil)
}

func (f *fakeExec) SignOut(ctx context.Context) error {
	f.signedIn = false
	return f.record("signout", nil)
}

func (f *fakeExec) WhoAmI(ctx context.Context) error { return f.record("whoami", nil) }
func (f *fakeExec) SetName(ctx context.Context, args []string) error {
	return f.record("setname", args)
}
func (f *fakeExec) Profiles(ctx context.Context) error { return f.record("profiles", nil) }
func (f *fakeExec) AddProfile(ctx context.Context, args []string) error {
	return f.record("addprofile", args)
}
func (f *fakeExec) DelProfile(ctx context.Context, args []string) error {
	return f.record("delprofile", args)
}
func (f *fakeExec) Send(ctx context.Context, args []string) error { return f.record("send", args) }
func (f *fakeExec) SendFile(ctx context.Context, args []string) error {
	return f.record("sendfile", args)
}
func (f *fakeExec) Shares(ctx context.Context) error { return f.record("shares", nil) }
func (f *fakeExec) Open(ctx context.Context, args []string) error { return f.record("open", args) }
func (f *fakeExec) DelShare(ctx context.Context, args []string) error {
	return f.record("delshare", args)
}
func (f *fakeExec) Toasts(ctx context.Context, args []string) error {
	return f.record("toasts", args)
}
func (f *fakeExec) Dismiss(ctx context.Context, args []string) error {
	return f.record("dismiss", args)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"signin",
		"help",
		"",
		"setname Ann Lee",
		"addprofile home",
		"profiles",
		"send +15550002 hi there",
		"sendfile +15550002 /tmp/a.txt",
		"shares",
		"open 1",
		"delshare 1",
		"delprofile 1",
		"toasts",
		"dismiss 3",
		"whoami",
		"foobar",
		"signout",
		"exit",
		"whoami",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "(s)" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{
		"signin", "setname", "addprofile", "profiles", "send", "sendfile", "shares",
		"open", "delshare", "delprofile", "toasts", "dismiss", "whoami", "signout",
	}, exec.calls)
	assert.Equal(t, []string{"Ann", "Lee"}, exec.args[1])
	assert.Equal(t, []string{"+15550002", "hi", "there"}, exec.args[4])

	s := out.String()
	assert.Contains(t, s, helpSignedOut)
	assert.Contains(t, s, helpSignedIn)
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "ss (s)> ")
	assert.True(t, strings.HasSuffix(s, "Bye!\n"))
	assert.Empty(t, exec.failed)
}

func TestRunREPL_ErrorsGoToFail(t *testing.T) {
	boom := errors.New("boom")
	exec := &fakeExec{failWith: boom}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("shares\nquit\n")), &out)

	require.Len(t, exec.failed, 1)
	assert.Same(t, boom, exec.failed[0])
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("shares")), &out)

	assert.Equal(t, []string{"shares"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("shares\n")), &out)

	assert.Empty(t, exec.calls)
	assert.Empty(t, out.String())
}
