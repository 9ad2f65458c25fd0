package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/cloudtodo/internal/auth"
	"github.com/idilsaglam/cloudtodo/internal/config"
	"github.com/idilsaglam/cloudtodo/internal/graphql"
	"github.com/idilsaglam/cloudtodo/internal/model"
	"github.com/idilsaglam/cloudtodo/internal/todo"
	"github.com/idilsaglam/cloudtodo/internal/ui"
)

// Options tune behavior from root flags.
type Options struct {
	ConfigPath string
	Theme      string
	NoColor    bool
	LogFile    string
	Debug      bool
	ShowIDs    bool // print server ids in `ls`

	// Stdin feeds `auth login` when it is not a terminal; nil means os.Stdin.
	Stdin io.Reader
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	ui.SetTheme(opt.Theme)
	ui.SetColorForcing(false, opt.NoColor)

	cmd, a := "ui", []string(nil)
	if len(args) > 0 {
		cmd, a = args[0], args[1:]
	}

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0
	case "auth":
		return runAuth(a, opt)
	case "ui", "ls", "add", "edit", "rm":
	default:
		ui.Fail("unknown subcommand: " + cmd)
		ui.Hint("Run: todo help")
		return 2
	}

	// validate arguments before touching config or network
	switch cmd {
	case "add":
		if len(a) < 2 {
			ui.Fail("usage: todo add <name> <description...>")
			return 2
		}
	case "edit":
		if len(a) < 3 {
			ui.Fail("usage: todo edit <id> <name> <description...>")
			return 2
		}
	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <id>")
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, code := setup(ctx, opt, cmd == "ui")
	if code != 0 {
		return code
	}
	defer r.close()

	switch cmd {
	case "ui":
		return r.doUI()
	case "ls":
		return r.doList()
	case "add":
		return r.doAdd(a[0], strings.Join(a[1:], " "))
	case "edit":
		return r.doEdit(a[0], a[1], strings.Join(a[2:], " "))
	default: // rm
		return r.doRemove(a[0])
	}
}

func PrintHelp() {
	ui.Println(`todo - a todo client for a hosted GraphQL API

Usage:
  todo [flags] [subcommand] [args]

Subcommands:
  (none), ui                          Interactive view (sign-in gate, list, form)
  ls                                  List todos
  add <name> <description...>         Create a todo
  edit <id> <name> <description...>   Update a todo
  rm <id>                             Delete a todo
  auth <login|logout|status|whoami>   Token authentication

Flags:
  --config <path>    exports file (default ./cloudtodo-exports.json, env CLOUDTODO_CONFIG)
  --theme <name>     classic | neon | mono
  --no-color         disable colors
  --log-file <path>  write JSON logs here (default ~/.cloudtodo/todo.log)
  --debug            also log debug records to stderr
  --ids              show todo ids in ls

Examples:
  todo auth login
  todo add "Buy milk" "two litres, semi-skimmed"
  todo --ids ls
  todo rm 5f0c1c7e-...`)
}

// -------------- wiring ----------------

type runner struct {
	ctx      context.Context
	opt      Options
	cfg      config.Config
	store    *auth.Store
	logger   *slog.Logger
	closeLog func()
}

func setup(ctx context.Context, opt Options, interactive bool) (*runner, int) {
	dir, err := auth.StateDir()
	if err != nil {
		ui.Fail("state dir: " + err.Error())
		return nil, 1
	}
	cfg, err := config.Load(opt.ConfigPath)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return nil, 2
	}
	logger, closeLog, err := newLogger(opt, dir, interactive)
	if err != nil {
		ui.Fail("log: " + err.Error())
		return nil, 1
	}
	logger.Debug("config loaded", "source", cfg.Source, "endpoint", cfg.GraphQLEndpoint, "auth", cfg.AuthType)
	return &runner{ctx: ctx, opt: opt, cfg: cfg, store: auth.NewStore(dir), logger: logger, closeLog: closeLog}, 0
}

func (r *runner) close() { r.closeLog() }

// connect builds a controller that talks to the configured endpoint on
// behalf of sess.
func (r *runner) connect(sess *auth.Session) *todo.Controller {
	var authz graphql.Authorizer
	switch r.cfg.AuthType {
	case config.AuthAPIKey:
		authz = graphql.APIKey(r.cfg.APIKey)
	default:
		authz = graphql.UserPoolToken(sess.Token)
	}
	client := graphql.NewClient(r.cfg.GraphQLEndpoint,
		graphql.WithTimeout(r.cfg.RequestTimeout()),
		graphql.WithAuthorizer(authz),
		graphql.WithLogger(r.logger),
	)
	logger := r.logger.With("user", sess.CurrentUser().Name)
	return todo.New(r.ctx, graphql.NewTodoService(client), logger)
}

// Require a session for networked commands.
func (r *runner) ensureAuth() (*auth.Session, int) {
	sess, err := r.store.Session()
	switch {
	case errors.Is(err, auth.ErrExpired):
		ui.Fail("session expired. Run: todo auth login")
		return nil, 2
	case err != nil:
		ui.Fail("auth: " + err.Error())
		return nil, 1
	case sess == nil:
		ui.Fail("not signed in. Set " + auth.TokenEnv + " or run `todo auth login`")
		return nil, 2
	}
	return sess, 0
}

// exec runs a controller command to completion and hands its result back.
func exec(ctrl *todo.Controller, cmd tea.Cmd) tea.Msg {
	msg := cmd()
	ctrl.Handle(msg)
	return msg
}

// -------------- subcommand impls ----------------

func (r *runner) doUI() int {
	m := ui.NewApp(r.store, r.connect, r.logger)
	if err := ui.Run(m); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func (r *runner) doList() int {
	sess, code := r.ensureAuth()
	if sess == nil {
		return code
	}
	ctrl := r.connect(sess)
	res := exec(ctrl, ctrl.LoadAll()).(todo.LoadedMsg)
	if res.Err != nil {
		ui.Fail("load: " + res.Err.Error())
		return 1
	}

	todos := ctrl.Todos()
	t := ui.Current()
	var lines []string
	lines = append(lines, fmt.Sprintf("%s  %s %d",
		t.Title.Render("Todos for "+sess.CurrentUser().Name),
		t.Accent.Render("Total"), len(todos)))
	lines = append(lines, "")
	lines = append(lines, todoLines(todos, r.opt.ShowIDs, ui.TermWidth()-6)...)
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\" \"two litres\"`"))
	ui.Panel(lines)
	return 0
}

func (r *runner) doAdd(name, description string) int {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" || description == "" {
		ui.Fail("add: name and description are required")
		return 2
	}
	sess, code := r.ensureAuth()
	if sess == nil {
		return code
	}
	ctrl := r.connect(sess)
	res := exec(ctrl, ctrl.Create(name, description)).(todo.MutationResultMsg)
	if res.Err != nil {
		ui.Fail("add: " + res.Err.Error())
		return 1
	}
	ui.OK("added " + res.Todo.ID)
	return 0
}

func (r *runner) doEdit(id, name, description string) int {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if id == "" || name == "" || description == "" {
		ui.Fail("edit: id, name and description are required")
		return 2
	}
	sess, code := r.ensureAuth()
	if sess == nil {
		return code
	}
	ctrl := r.connect(sess)
	res := exec(ctrl, ctrl.Update(id, name, description)).(todo.MutationResultMsg)
	if res.Err != nil {
		ui.Fail("edit: " + res.Err.Error())
		return 1
	}
	ui.OK("updated")
	return 0
}

func (r *runner) doRemove(id string) int {
	if strings.TrimSpace(id) == "" {
		ui.Fail("rm: empty id")
		return 2
	}
	sess, code := r.ensureAuth()
	if sess == nil {
		return code
	}
	ctrl := r.connect(sess)
	res := exec(ctrl, ctrl.Remove(id)).(todo.MutationResultMsg)
	if res.Err != nil {
		ui.Fail("rm: " + res.Err.Error())
		ui.Hint("Hint: run `todo --ids ls` to see valid ids")
		return 1
	}
	ui.OK("removed")
	return 0
}

// -------------- rendering helpers --------------

func todoLines(todos []model.Todo, showIDs bool, width int) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(todos)*2)
	for i, td := range todos {
		head := fmt.Sprintf("%s %s", t.Muted.Render(fmt.Sprintf("%2d.", i+1)), t.Title.Render(td.Name))
		if showIDs {
			head += " " + t.Muted.Render("["+td.ID+"]")
		}
		out = append(out, ui.Truncate(head, width))
		if td.Description != "" {
			out = append(out, ui.Truncate("    "+td.Description, width))
		}
	}
	return out
}
