package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/engine"
	"github.com/danieljhkim/blockpad/internal/syncprovider"
)

var openWatch bool

// openCmd selects a workspace and renders its document.
var openCmd = &cobra.Command{
	Use:   "open [workspace-id]",
	Short: "Open a workspace document",
	Long: `Select a workspace, wait for its document to sync and print the page outline.

Without an argument the current selection is opened, which is the first listed
workspace. With --watch the command keeps running: each line read from stdin
names a workspace to switch to, and changes written to the backing store by
other processes are re-rendered.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newEngine()
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 1 {
			if err := selectWorkspace(s.eng, args[0]); err != nil {
				return err
			}
		}
		id := s.eng.Selected()
		if id == "" {
			return fmt.Errorf("no workspaces; add one with 'blockpad add <workspace-id>'")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		surface := newTerminalSurface(jsonOutput)
		s.eng.SetSurface(surface)
		defer s.eng.SetSurface(nil)

		if err := waitMounted(ctx, s.eng, surface, id); err != nil {
			return err
		}
		if !openWatch {
			return nil
		}

		w := &watcher{session: s, surface: surface}
		defer w.unfollow()
		w.follow(id)
		return w.run(ctx, cmd.InOrStdin())
	},
}

func init() {
	openCmd.Flags().BoolVarP(&openWatch, "watch", "w", false, "Keep running and switch workspaces by reading ids from stdin")
}

// selectWorkspace selects id, pointing at 'add' for unknown ids.
func selectWorkspace(eng *engine.Engine, id string) error {
	if err := eng.Select(id); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return fmt.Errorf("%w; add it with 'blockpad add %s'", err, id)
		}
		return err
	}
	return nil
}

// waitMounted waits until id has resolved and its view is on surface.
func waitMounted(ctx context.Context, eng *engine.Engine, surface *terminalSurface, id string) error {
	if _, err := eng.WaitHandle(ctx, id); err != nil {
		return err
	}
	for {
		changed := surface.Changed()
		if surface.Attached() == id {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// watcher drives open --watch.
type watcher struct {
	session *session
	surface *terminalSurface
	cancel  func()
}

// follow re-renders the surface when the backing store changes id's
// document.
func (w *watcher) follow(id string) {
	w.unfollow()
	store, ok := w.session.reg.Lookup(id)
	if !ok {
		return
	}
	w.cancel = store.Subscribe(func(u docstore.Update) {
		if u.Origin != syncprovider.Origin {
			return
		}
		if err := w.surface.Refresh(); err != nil {
			w.session.logger.Warn().Err(err).Str("workspace", id).Msg("failed to refresh outline")
		}
	})
}

func (w *watcher) unfollow() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// run switches workspaces for each id read from in until in is exhausted or
// ctx is done.
func (w *watcher) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			id := strings.TrimSpace(line)
			if id == "" {
				continue
			}
			if err := selectWorkspace(w.session.eng, id); err != nil {
				PrintError(err.Error())
				continue
			}
			if err := waitMounted(ctx, w.session.eng, w.surface, id); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				PrintError(err.Error())
				continue
			}
			w.follow(id)
		}
	}
}
