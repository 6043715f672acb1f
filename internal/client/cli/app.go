package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/profilekeeper/internal/client/config"
	"github.com/dmitrijs2005/profilekeeper/internal/client/engine"
	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/screen"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

type App struct {
	config *config.Config
	engine *engine.Engine
	log    logging.Logger
	closer io.Closer
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the profile engine described by c. Log records go to stderr
// so they do not interleave with prompts.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	rt, err := engine.Open(ctx, c, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &App{
		config: c,
		engine: rt.Engine,
		log:    rt.Logger,
		closer: rt,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.closer.Close(); err != nil {
			a.log.Error(ctx, "shutdown error", "error", err)
		}
	}()

	printlnFn("Welcome to profilectl (type 'help' for commands)")
	a.engine.Wait()
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.engine.Auth.Snapshot().IsAuthenticated
}

// getStatus renders the prompt status: who is signed in and which screen
// the engine selected.
func (a *App) getStatus() string {
	snap := a.engine.Auth.Snapshot()
	who := "signed out"
	if snap.Identity != nil {
		switch {
		case snap.Identity.Email != "":
			who = snap.Identity.Email
		case snap.Identity.Anonymous:
			who = "anonymous"
		default:
			who = snap.Identity.ID
		}
	}
	return fmt.Sprintf("(%s %s)", who, a.engine.Screen())
}

// currentProfile returns the loaded profile or explains why there is none.
func (a *App) currentProfile() (models.UserProfile, error) {
	st := a.engine.Profiles.Snapshot()
	switch {
	case st.Profile != nil:
		return *st.Profile, nil
	case st.LoadError != nil:
		return models.UserProfile{}, fmt.Errorf("profile unavailable: %w (try 'reload')", st.LoadError)
	case st.Loading:
		return models.UserProfile{}, errors.New("profile is still loading")
	}
	return models.UserProfile{}, errors.New("no profile loaded")
}

// settle waits for background loads and reports the screen they led to.
func (a *App) settle() {
	a.engine.Wait()
	if s := a.engine.Screen(); s != screen.MainApp {
		printlnFn("Screen:", s)
	}
}

// LogLevel prints or changes the log level: loglevel [debug|info|warn|error].
func (a *App) LogLevel(ctx context.Context, args []string) error {
	ls, ok := a.log.(logging.LevelSetter)
	if !ok {
		printlnFn("Log level cannot be changed")
		return logging.ErrFixedLevel
	}
	if len(args) > 0 {
		if err := ls.SetLevel(args[0]); err != nil {
			printlnFn(err.Error())
			return err
		}
	}
	printlnFn("Log level:", ls.Level())
	return nil
}
