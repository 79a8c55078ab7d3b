package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/presentation/graph"
	"github.com/aretw0/wizvis/internal/presentation/tui"
	"github.com/aretw0/wizvis/internal/runtime"
	"github.com/aretw0/wizvis/pkg/domain"
)

// ErrQuit is returned by Execute when the user asks to leave.
var ErrQuit = errors.New("quit")

const helpText = `Commands:
  status              show active states, transitions and data (default)
  fire <event>        send an event to the engine
  eval <expr>         evaluate a guard expression
  set <path> <value>  assign a data model value
  get <path>          print a data model value
  data                list the data model
  states              list every state id
  tree                print the state hierarchy
  graph               print a mermaid diagram of the chart
  open <file>         load another definition
  reload              re-read the current definition
  recent              list recently opened definitions
  help                show this text
  quit                leave the inspector
`

// Session is an interactive inspector over a single Inspector.
type Session struct {
	insp   *wizvis.Inspector
	out    io.Writer
	render tui.Renderer
	color  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithColor enables glamour rendering and coloured transitions.
func WithColor(enabled bool) SessionOption {
	return func(s *Session) {
		s.color = enabled
	}
}

// NewSession creates a session writing to out.
func NewSession(insp *wizvis.Inspector, out io.Writer, opts ...SessionOption) *Session {
	s := &Session{insp: insp, out: out}
	for _, opt := range opts {
		opt(s)
	}
	s.render = tui.NewRenderer(!s.color)
	return s
}

// Run reads commands from in until EOF, quit or ctx is done.
// Command failures are printed and do not end the session.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Execute(ctx, scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			printSystemMessage(s.out, "%v", err)
		}
		fmt.Fprint(s.out, "> ")
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Execute runs a single command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "", "status", "s":
		return s.status(ctx)
	case "fire", "f":
		return s.fire(ctx, arg)
	case "eval", "e":
		if arg == "" {
			return errors.New("usage: eval <expr>")
		}
		fmt.Fprintln(s.out, s.insp.IsExpressionTrue(ctx, arg))
		return nil
	case "set":
		path, value, ok := strings.Cut(arg, " ")
		if !ok || path == "" {
			return errors.New("usage: set <path> <value>")
		}
		if err := s.insp.AssignDataValue(ctx, path, strings.TrimSpace(value)); err != nil {
			return err
		}
		return s.status(ctx)
	case "get":
		v, ok := s.insp.Get(arg)
		if !ok {
			return fmt.Errorf("no data at %q", arg)
		}
		fmt.Fprintln(s.out, runtime.FormatValue(v))
		return nil
	case "data":
		return s.data()
	case "states":
		if !s.insp.Loaded() {
			return domain.ErrNotLoaded
		}
		for _, id := range s.insp.AllStates() {
			fmt.Fprintln(s.out, id)
		}
		return nil
	case "tree":
		if !s.insp.Loaded() {
			return domain.ErrNotLoaded
		}
		writeTree(s.out, s.insp.StateTree(), 0)
		return nil
	case "graph":
		def := s.insp.Definition()
		if def == nil {
			return domain.ErrNotLoaded
		}
		fmt.Fprint(s.out, graph.GenerateMermaid(def, &graph.Overlay{Active: domain.IDs(s.insp.ActiveStates())}))
		return nil
	case "open", "o":
		if arg == "" {
			return errors.New("usage: open <file>")
		}
		if err := s.insp.Open(ctx, arg); err != nil {
			return err
		}
		return s.status(ctx)
	case "reload", "r":
		if err := s.insp.Reload(ctx); err != nil {
			return err
		}
		printSystemMessage(s.out, "Reloaded.")
		return s.status(ctx)
	case "recent":
		paths, err := s.insp.Recent(ctx)
		if err != nil {
			return err
		}
		for i, p := range paths {
			fmt.Fprintf(s.out, "%2d. %s\n", i+1, p)
		}
		return nil
	case "help", "h", "?":
		fmt.Fprint(s.out, helpText)
		return nil
	case "quit", "q", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (s *Session) fire(ctx context.Context, event string) error {
	if event == "" {
		return errors.New("usage: fire <event>")
	}
	before := domain.IDs(s.insp.ActiveStates())
	if err := s.insp.FireEvent(ctx, event); err != nil {
		return err
	}
	diff := domain.Diff(before, domain.IDs(s.insp.ActiveStates()))
	if diff.IsEmpty() {
		printSystemMessage(s.out, "'%s' handled, active states unchanged.", event)
	} else {
		printSystemMessage(s.out, "'%s' exited [%s] entered [%s].", event,
			strings.Join(diff.Exited, ", "), strings.Join(diff.Entered, ", "))
	}
	return s.status(ctx)
}

func (s *Session) status(ctx context.Context) error {
	snap, err := s.insp.Snapshot(ctx)
	if err != nil {
		return err
	}
	md := tui.StatusMarkdown(tui.Status{
		Name:    snap.Name,
		Source:  snap.Source,
		Binding: snap.Binding,
		Active:  snap.Active,
		Data:    snap.Data,
	})
	out, err := s.render(md)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, out)

	if s.color {
		for _, st := range snap.Active {
			for _, t := range st.Transitions {
				fmt.Fprintf(s.out, "  %s: %s\n", st.ID, tui.ColorTransition(t))
			}
		}
	}
	return nil
}

func (s *Session) data() error {
	if !s.insp.Loaded() {
		return domain.ErrNotLoaded
	}
	values := s.insp.Values()
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(s.out, "%s = %s\n", p, runtime.FormatValue(values[p]))
	}
	return nil
}

func writeTree(w io.Writer, nodes []domain.TreeNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.ID)
		writeTree(w, n.Children, depth+1)
	}
}
