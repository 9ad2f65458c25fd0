package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/idilsaglam/cloudtodo/internal/auth"
	"github.com/idilsaglam/cloudtodo/internal/ui"
)

const authUsage = "usage: todo auth <login|logout|status|whoami>"

func runAuth(args []string, opt Options) int {
	if len(args) != 1 {
		ui.Fail(authUsage)
		return 2
	}
	dir, err := auth.StateDir()
	if err != nil {
		ui.Fail("state dir: " + err.Error())
		return 1
	}
	store := auth.NewStore(dir)

	switch args[0] {
	case "login":
		return doAuthLogin(store, opt.Stdin)
	case "logout":
		return doAuthLogout(store)
	case "status":
		return doAuthStatus(store)
	case "whoami":
		return doAuthWhoAmI(store)
	default:
		ui.Fail(authUsage)
		return 2
	}
}

func doAuthLogin(store *auth.Store, in io.Reader) int {
	token, err := readToken(in)
	if err != nil {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	sess, err := store.SignIn(token)
	switch {
	case errors.Is(err, auth.ErrEmptyToken):
		ui.Fail("empty token")
		return 2
	case errors.Is(err, auth.ErrExpired):
		ui.Fail("token already expired")
		return 1
	case errors.Is(err, auth.ErrEnvToken):
		ui.Fail("unset " + auth.TokenEnv + " to sign in with another token")
		return 2
	case err != nil:
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("signed in as " + sess.CurrentUser().Name)
	return 0
}

// readToken hides input on a terminal and reads one line otherwise.
func readToken(in io.Reader) (string, error) {
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Paste your token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func doAuthLogout(store *auth.Store) int {
	ti, err := store.Get()
	if err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	// expired or not, an env token outlives any file we delete
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + auth.TokenEnv + " (nothing to delete)")
		return 0
	}
	if err := store.Delete(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("signed out")
	return 0
}

func doAuthStatus(store *auth.Store) int {
	ti, err := store.Get()
	if err != nil {
		ui.Fail("status: " + err.Error())
		return 1
	}
	t := ui.Current()
	if ti == nil {
		ui.Println(t.Muted.Render("not signed in"))
		ui.Println("Run: todo auth login")
		return 0
	}
	ui.Println("user:   " + auth.UserFromToken(ti.Token).Name)
	ui.Println("source: " + ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		ui.Println("expires: (unknown)")
	case ti.Expired(time.Now()):
		ui.Println("expires: " + t.Error.Render(ti.ExpiresAt.UTC().Format(time.RFC3339)+" (expired)"))
	default:
		ui.Println("expires: " + ti.ExpiresAt.UTC().Format(time.RFC3339))
	}
	ui.Println("env override: " + auth.TokenEnv)
	return 0
}

// whoami decodes the JWT locally (unverified); opaque tokens print basic info.
func doAuthWhoAmI(store *auth.Store) int {
	ti, err := store.Get()
	if err != nil {
		ui.Fail("whoami: " + err.Error())
		return 1
	}
	if ti == nil {
		ui.Fail("not signed in. Run: todo auth login")
		return 2
	}
	u := auth.UserFromToken(ti.Token)
	ui.Println("name:    " + u.Name)
	if u.Subject != "" {
		ui.Println("subject: " + u.Subject)
	}
	claims, ok := auth.Claims(ti.Token)
	if !ok {
		ui.Println("Opaque token (cannot introspect locally).")
		ui.Println("source:", ti.Source)
		return 0
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		ui.Fail("whoami: " + err.Error())
		return 1
	}
	ui.Println("JWT payload:")
	ui.Println(string(b))
	return 0
}
