package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Anonymous(ctx context.Context) error
	Credential(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Show(ctx context.Context) error
	Set(ctx context.Context, args []string) error
	Interest(ctx context.Context, args []string) error
	Goal(ctx context.Context, args []string) error
	Save(ctx context.Context) error
	Onboard(ctx context.Context) error
	Theme(ctx context.Context, args []string) error
	LogLevel(ctx context.Context, args []string) error
	Notices(ctx context.Context, args []string) error
	Reload(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The same reader serves the interactive prompts of the commands. The loop
// exits on EOF, on "exit" or "quit", or when ctx is done.
//
//	Signed out:
//	  register | login | anon | credential [token] | theme | loglevel | help | exit
//
//	Signed in:
//	  status | profile | set <field> <value> | interest add|rm <value>
//	  goal add|toggle|rm ... | save | onboard | notices [dismiss <id>]
//	  reload | theme [mode] | loglevel [level] | logout | help | exit
//
// Errors returned by handlers are already reported to the user and are
// ignored here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("pk %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, profile, set, interest, goal, save, onboard, notices, reload, theme, loglevel, logout, exit")
			} else {
				printlnFn("Available commands: register, login, anon, credential, theme, loglevel, exit")
			}

		case "register", "signup":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "anon":
			_ = a.Anonymous(ctx)

		case "credential":
			_ = a.Credential(ctx, args)

		case "theme":
			_ = a.Theme(ctx, args)

		case "loglevel":
			_ = a.LogLevel(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if !a.isLoggedIn() {
				printlnFn("Unknown command:", cmd)
				continue
			}
			dispatchSignedIn(ctx, a, cmd, args)
		}
	}
}

func dispatchSignedIn(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "status":
		_ = a.Status(ctx)
	case "p", "profile":
		_ = a.Show(ctx)
	case "set":
		_ = a.Set(ctx, args)
	case "interest":
		_ = a.Interest(ctx, args)
	case "goal":
		_ = a.Goal(ctx, args)
	case "save":
		_ = a.Save(ctx)
	case "onboard":
		_ = a.Onboard(ctx)
	case "notices":
		_ = a.Notices(ctx, args)
	case "reload":
		_ = a.Reload(ctx)
	case "logout":
		_ = a.Logout(ctx)
	default:
		printlnFn("Unknown command:", cmd)
	}
}
