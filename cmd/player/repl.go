package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cueline/internal/app/notification"
	"github.com/osa030/cueline/internal/app/playback"
	"github.com/osa030/cueline/internal/app/source"
	"github.com/osa030/cueline/internal/domain/playlist"
	"github.com/osa030/cueline/internal/domain/track"
)

var errUsage = errors.New("usage")

// Player is the subset of session.Manager driven by line commands.
type Player interface {
	OpenContext(ctx context.Context, ref, focusID string) (*playlist.Playlist, error)
	PlayFromContext(ctx context.Context, trackID string) error
	EnqueueByID(ctx context.Context, ref, trackID string) error
	Advance(ctx context.Context) error
	GoBack(ctx context.Context) error
	ClearQueue(ctx context.Context) error
	TogglePlayPause(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error
	SetVolume(ctx context.Context, level float64) error
	Snapshot(ctx context.Context) (playback.Snapshot, error)
}

// ContextLister enumerates browsable contexts.
type ContextLister interface {
	List(ctx context.Context) []source.Listing
}

const helpText = `Commands:
  open <ref> [track-id]    open a context and play its focus track
  play <track-id>          play a track of the current context
  next                     advance (queue first, then context)
  back                     go back (history first, then context)
  queue <track-id> [ref]   play a track next (current context when ref is omitted)
  clear                    clear the queue
  pause                    toggle play/pause
  seek <sec>               seek within the current track
  volume <0..1>            set the volume
  status                   show the player state
  contexts                 list contexts of every source
  quit                     exit`

type repl struct {
	player   Player
	contexts ContextLister
	out      io.Writer
}

func newREPL(player Player, contexts ContextLister, out io.Writer) *repl {
	return &repl{player: player, contexts: contexts, out: out}
}

// run reads commands from in until quit, EOF or cancellation.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, `Type "help" for commands.`)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return errors.Wrap(scanner.Err(), "failed to read command")
		}
		if ctx.Err() != nil {
			return nil
		}

		quit, err := r.exec(ctx, scanner.Text())
		if err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintln(r.out, err.Error())
			} else {
				fmt.Fprintf(r.out, "Error: %v\n", err)
			}
		}
		if quit {
			return nil
		}
	}
}

// exec executes one command line.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(r.out, helpText)
		return false, nil

	case "quit", "exit":
		return true, nil

	case "open":
		if len(args) < 1 || len(args) > 2 {
			return false, usage("open <ref> [track-id]")
		}
		focus := ""
		if len(args) == 2 {
			focus = args[1]
		}
		pl, err := r.player.OpenContext(ctx, args[0], focus)
		if err != nil {
			return false, err
		}
		printContext(r.out, pl)
		return false, nil

	case "play":
		if len(args) != 1 {
			return false, usage("play <track-id>")
		}
		return false, r.player.PlayFromContext(ctx, args[0])

	case "next":
		return false, r.player.Advance(ctx)

	case "back":
		return false, r.player.GoBack(ctx)

	case "queue":
		if len(args) < 1 || len(args) > 2 {
			return false, usage("queue <track-id> [ref]")
		}
		ref := ""
		if len(args) == 2 {
			ref = args[1]
		}
		return false, r.player.EnqueueByID(ctx, ref, args[0])

	case "clear":
		return false, r.player.ClearQueue(ctx)

	case "pause":
		return false, r.player.TogglePlayPause(ctx)

	case "seek":
		if len(args) != 1 {
			return false, usage("seek <sec>")
		}
		sec, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, usage("seek <sec>")
		}
		return false, r.player.Seek(ctx, time.Duration(sec*float64(time.Second)))

	case "volume", "vol":
		if len(args) != 1 {
			return false, usage("volume <0..1>")
		}
		level, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, usage("volume <0..1>")
		}
		return false, r.player.SetVolume(ctx, level)

	case "status":
		snap, err := r.player.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		printSnapshot(r.out, snap)
		return false, nil

	case "contexts":
		printListings(r.out, r.contexts.List(ctx))
		return false, nil

	default:
		return false, errors.Mark(errors.Newf("unknown command %q (type \"help\")", cmd), errUsage)
	}
}

func usage(form string) error {
	return errors.Mark(errors.Newf("usage: %s", form), errUsage)
}

func printContext(w io.Writer, pl *playlist.Playlist) {
	fmt.Fprintf(w, "Opened %s [%s] (%d tracks)\n", pl.Name, pl.Source, len(pl.Tracks))
	for i, t := range pl.Tracks {
		fmt.Fprintf(w, "  %3d. %-24s %s\n", i+1, t.ID, t.String())
	}
}

func printSnapshot(w io.Writer, s playback.Snapshot) {
	fmt.Fprintln(w, "=== PLAYER STATUS ===")
	fmt.Fprintf(w, "State: %s\n", s.State)
	if s.CurrentTrack != nil {
		fmt.Fprintf(w, "Track: %s (%s)\n", s.CurrentTrack.String(), s.CurrentTrack.ID)
		fmt.Fprintf(w, "Position: %s / %s\n", formatDuration(s.Position), formatDuration(s.Duration))
	}
	fmt.Fprintf(w, "Volume: %.2f\n", s.Volume)
	if s.ContextPosition >= 0 {
		fmt.Fprintf(w, "Context: %d/%d", s.ContextPosition+1, s.ContextLength)
		if s.ContextTrack != nil && (s.CurrentTrack == nil || s.ContextTrack.ID != s.CurrentTrack.ID) {
			fmt.Fprintf(w, " at %s", s.ContextTrack.String())
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Context: %d tracks\n", s.ContextLength)
	}
	printTracks(w, "Queue", s.Queue)
	printTracks(w, "History", s.History)
}

func printTracks(w io.Writer, title string, tracks []track.Track) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(tracks))
	for i, t := range tracks {
		fmt.Fprintf(w, "  %d. %s\n", i+1, t.String())
	}
}

func printListings(w io.Writer, listings []source.Listing) {
	for _, l := range listings {
		fmt.Fprintf(w, "%s (%s):\n", l.DisplayName, l.Type)
		if l.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", l.Err)
			continue
		}
		for _, c := range l.Contexts {
			fmt.Fprintf(w, "  %-40s %s\n", c.ID, c.Name)
		}
	}
}

func printNotification(w io.Writer, n *notification.Notification) {
	fmt.Fprintf(w, "\n[%d] %s", n.SequenceNo, n.Type)
	if n.Type == playback.EventTrackStarted {
		fmt.Fprintf(w, " (%s)", n.Source)
	}
	if t := n.Track; t != nil {
		fmt.Fprintf(w, ": %s", t.String())
	}
	if n.Err != "" {
		fmt.Fprintf(w, " error=%s", n.Err)
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
