package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isSignedIn() bool
	fail(err error)

	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	SetName(ctx context.Context, args []string) error
	Profiles(ctx context.Context) error
	AddProfile(ctx context.Context, args []string) error
	DelProfile(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	SendFile(ctx context.Context, args []string) error
	Shares(ctx context.Context) error
	Open(ctx context.Context, args []string) error
	DelShare(ctx context.Context, args []string) error
	Toasts(ctx context.Context, args []string) error
	Dismiss(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: signin, toasts, dismiss, help, exit"
	helpSignedIn  = "Available commands: whoami, setname, profiles, addprofile, delprofile, " +
		"send, sendfile, shares, open, delshare, toasts, dismiss, signout, help, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// The prompt shows statusFn's result. The loop ends on EOF, on "exit" or
// "quit", or when ctx is done. Errors returned by a command go to a.fail.
//
//	Signed out:
//	  signin                     sign in or create an account
//	Signed in:
//	  whoami                     show account and public info
//	  setname <name>             set the public display name
//	  profiles                   list profiles
//	  addprofile <name>          add a profile
//	  delprofile <#|id>          delete a profile
//	  send <phone> [text]        send a text share
//	  sendfile <phone> <path>    send a file share
//	  shares                     list received shares
//	  open <#|id>                show a text share or save a file share
//	  delshare <#|id>            delete a received share
//	  signout                    end the session
//	Always:
//	  toasts [seconds]           list toasts, optionally set their lifetime
//	  dismiss <id>               dismiss a toast
//	  help, exit | quit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "ss %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isSignedIn() {
				fmt.Fprintln(out, helpSignedIn)
			} else {
				fmt.Fprintln(out, helpSignedOut)
			}

		case "signin":
			cmdErr = a.SignIn(ctx)
		case "signout":
			cmdErr = a.SignOut(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "setname":
			cmdErr = a.SetName(ctx, args)
		case "profiles":
			cmdErr = a.Profiles(ctx)
		case "addprofile":
			cmdErr = a.AddProfile(ctx, args)
		case "delprofile":
			cmdErr = a.DelProfile(ctx, args)
		case "send":
			cmdErr = a.Send(ctx, args)
		case "sendfile":
			cmdErr = a.SendFile(ctx, args)
		case "shares":
			cmdErr = a.Shares(ctx)
		case "open":
			cmdErr = a.Open(ctx, args)
		case "delshare":
			cmdErr = a.DelShare(ctx, args)
		case "toasts":
			cmdErr = a.Toasts(ctx, args)
		case "dismiss":
			cmdErr = a.Dismiss(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			a.fail(cmdErr)
		}
		if err != nil {
			return
		}
	}
}
