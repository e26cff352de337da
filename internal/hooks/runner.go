package hooks

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/HendryAvila/recall/internal/config"
	"github.com/HendryAvila/recall/internal/ingest"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
)

// Env is everything a hook handler needs, assembled per invocation.
type Env struct {
	ProjectDir string
	Store      *store.Store
	Indexer    *symbols.Indexer
	Ingest     *ingest.Ingestor
	Config     *config.Config
}

// Handler processes one hook payload. Anything it returns as output is
// written to stdout for the host.
type Handler func(env *Env, in *Input) (output string, err error)

// Run executes a hook end to end: read payload, check the kill switch,
// build the environment, run the handler. It is strictly fail-open —
// errors and panics are logged to stderr and swallowed, and the
// returned exit code is always 0.
func Run(name string, stdin io.Reader, stdout io.Writer, fn Handler) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[recall] hook %s panicked: %v", name, r)
		}
		code = 0
	}()

	if Disabled() {
		return 0
	}

	in, err := ReadInput(stdin)
	if err != nil {
		log.Printf("[recall] hook %s: %v", name, err)
		return 0
	}

	env, err := newEnv(in)
	if err != nil {
		log.Printf("[recall] hook %s: %v", name, err)
		return 0
	}
	defer env.Close()

	output, err := fn(env, in)
	env.Store.LogHook(name, in.SessionID, err == nil, errDetail(err))
	if err != nil {
		log.Printf("[recall] hook %s: %v", name, err)
		return 0
	}
	if output != "" {
		fmt.Fprintln(stdout, output)
	}
	return 0
}

// newEnv opens the project store and wires the ingest path.
func newEnv(in *Input) (*Env, error) {
	projectDir := in.CWD
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("hooks: resolve project dir: %w", err)
		}
		projectDir = wd
	}

	s, err := store.Open(store.DefaultConfig(projectDir))
	if err != nil {
		return nil, err
	}

	ix, err := symbols.New(s, projectDir, nil)
	if err != nil {
		s.Close()
		return nil, err
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		// Bad config never blocks event capture.
		log.Printf("[recall] config: %v", err)
		cfg = &config.Config{}
	}

	return &Env{
		ProjectDir: projectDir,
		Store:      s,
		Indexer:    ix,
		Ingest:     ingest.New(s, ix),
		Config:     cfg,
	}, nil
}

// Close releases the environment's store.
func (e *Env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
