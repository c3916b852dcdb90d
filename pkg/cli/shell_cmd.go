package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"catgraph/internal/history"
	"catgraph/internal/service"
)

const shellHelp = `Statements (SELECT, INSERT) run as typed; end a line with \ to continue it.
  .back          show the previous statement of the history
  .forward       show the next statement of the history
  .last          show the newest statement of the history
  .run           run the statement under the history cursor
  .save <name>   save the statement under the history cursor
  .use <name>    run a saved statement
  .saved         list saved statements
  .ihistory [back|forward|last]
                 move through the import history (connection,container)
  .harvest [new] harvest the import under the import history cursor;
                 with new the graph is replaced
  .compact       toggle prefix:local display of IRIs
  .unquote       toggle percent-decoding of values
  .help          show this help
  .quit          leave the shell
`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive statement shell with history navigation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			_, interactive := terminalFd(cmd.InOrStdin())
			sh := &shell{
				svc:     svc,
				out:     cmd.OutOrStdout(),
				errOut:  cmd.ErrOrStderr(),
				opts:    service.QueryOptions{Compact: true},
				prompt:  interactive,
				outJSON: getOutputFormat(cmd) == "json",
			}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// shell is a line-oriented statement loop over one Service.
type shell struct {
	svc     *service.Service
	out     io.Writer
	errOut  io.Writer
	opts    service.QueryOptions
	prompt  bool
	outJSON bool
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var pending strings.Builder
	for {
		if s.prompt {
			if pending.Len() == 0 {
				_, _ = fmt.Fprint(s.out, "catgraph> ")
			} else {
				_, _ = fmt.Fprint(s.out, "      ... ")
			}
		}
		if !sc.Scan() {
			break
		}
		line := sc.Text()
		if cont, ok := strings.CutSuffix(line, `\`); ok {
			pending.WriteString(cont)
			pending.WriteByte('\n')
			continue
		}
		pending.WriteString(line)
		input := strings.TrimSpace(pending.String())
		pending.Reset()
		if input == "" {
			continue
		}
		if quit := s.exec(ctx, input); quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return sc.Err()
}

// exec handles one input and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, ".") {
		s.query(ctx, input)
		return false
	}
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	h := s.svc.QueryHistory()
	switch name {
	case ".quit", ".exit":
		return true
	case ".help":
		_, _ = fmt.Fprint(s.out, shellHelp)
	case ".back":
		s.step(h, "query history", "back")
	case ".forward":
		s.step(h, "query history", "forward")
	case ".last":
		s.step(h, "query history", "last")
	case ".ihistory":
		s.step(s.svc.ImportHistory(), "import history", arg)
	case ".harvest":
		if arg != "" && arg != "new" {
			s.fail(fmt.Errorf("usage: .harvest [new]"))
			return false
		}
		token, ok := s.svc.ImportHistory().Value()
		if !ok {
			s.fail(fmt.Errorf("import history is empty"))
			return false
		}
		res, err := s.svc.HarvestToken(ctx, token, arg == "new", false)
		if err != nil {
			s.fail(err)
			return false
		}
		_, _ = fmt.Fprintf(s.out, "harvested %s: %d datasets, %d triples added\n", res.Token, res.Datasets, res.Added)
	case ".run":
		stmt, ok := h.Value()
		if !ok {
			s.fail(fmt.Errorf("query history is empty"))
			return false
		}
		s.query(ctx, stmt)
	case ".save":
		stmt, ok := h.Value()
		if !ok {
			s.fail(fmt.Errorf("query history is empty"))
			return false
		}
		if err := s.svc.Saved().Set(arg, stmt); err != nil {
			s.fail(err)
			return false
		}
		_, _ = fmt.Fprintf(s.out, "saved as %q\n", arg)
	case ".use":
		res, err := s.svc.RunSaved(ctx, arg, s.opts)
		s.print(res, err)
	case ".saved":
		var rows [][]string
		for _, n := range s.svc.Saved().Names() {
			stmt, _ := s.svc.Saved().Get(n)
			rows = append(rows, []string{n, stmt})
		}
		printTable(s.out, []string{"name", "statement"}, rows)
	case ".compact":
		s.opts.Compact = !s.opts.Compact
		_, _ = fmt.Fprintf(s.out, "compact: %t\n", s.opts.Compact)
	case ".unquote":
		s.opts.Unquote = !s.opts.Unquote
		_, _ = fmt.Fprintf(s.out, "unquote: %t\n", s.opts.Unquote)
	default:
		s.fail(fmt.Errorf("unknown command %s (try .help)", name))
	}
	return false
}

func (s *shell) query(ctx context.Context, stmt string) {
	res, err := s.svc.Query(ctx, stmt, s.opts)
	s.print(res, err)
}

func (s *shell) print(res *service.QueryResult, err error) {
	if err != nil {
		s.fail(err)
		return
	}
	_ = writeQueryResult(s.out, s.outJSON, res)
}

// step moves the cursor of h ("back", "forward", or "last" when empty) and
// prints the entry under it.
func (s *shell) step(h *history.History, what, dir string) {
	var (
		entry string
		ok    bool
	)
	switch dir {
	case "back":
		entry, ok = h.Back()
	case "forward":
		entry, ok = h.Forward()
	case "", "last":
		entry, ok = h.Current()
	default:
		s.fail(fmt.Errorf("unknown direction %q (back, forward, last)", dir))
		return
	}
	if !ok {
		s.fail(fmt.Errorf("%s is empty", what))
		return
	}
	_, _ = fmt.Fprintf(s.out, "[%s] %s\n", h.Position(), entry)
}

func (s *shell) fail(err error) {
	_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
}
