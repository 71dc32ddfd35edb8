// Command chatcli runs the estimate chat in a terminal. Leads are kept in
// a JSON file under the user's config directory.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/acegrowth/ace-chatbot/internal/app/bootstrap"
	"github.com/acegrowth/ace-chatbot/internal/chatbot"
	"github.com/acegrowth/ace-chatbot/internal/chatflow"
	appconfig "github.com/acegrowth/ace-chatbot/internal/config"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/presenter"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	var (
		leadsPath  = flag.String("leads-file", "", "lead file (default: user config dir)")
		listLeads  = flag.Bool("list-leads", false, "print stored leads as JSON and exit")
		clearLeads = flag.Bool("clear-leads", false, "delete stored leads and exit")
		typing     = flag.Bool("typing", true, "pace bot messages like a person typing")
		logLevel   = flag.String("log-level", "warn", "log level written to stderr")
	)
	flag.Parse()

	if err := run(*leadsPath, *listLeads, *clearLeads, *typing, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(leadsPath string, listLeads, clearLeads, typing bool, logLevel string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(logLevel, os.Stderr)

	if leadsPath == "" {
		p, err := leads.DefaultFilePath()
		if err != nil {
			return err
		}
		leadsPath = p
	}
	store := leads.NewFileStore(leadsPath)

	switch {
	case clearLeads:
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clearing leads: %w", err)
		}
		color.New(color.FgGreen).Println("Leads cleared.")
		return nil
	case listLeads:
		all, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("reading leads: %w", err)
		}
		if all == nil {
			all = []leads.Lead{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}

	overrides, err := bootstrap.LoadWidgetOverrides(cfg)
	if err != nil {
		return err
	}
	dispatcher := bootstrap.BuildNotifier(ctx, cfg, overrides.Merge(widget.Defaults()), chatbot.Version, nil, logger)
	if dispatcher != nil {
		defer dispatcher.Close()
	}

	w := chatbot.New(store, bootstrap.BuildCapture(store, dispatcher, nil, logger),
		chatbot.WithTyping(typing),
		chatbot.WithLogger(logger),
	)
	opts, err := w.Initialize(overrides)
	if err != nil {
		return err
	}
	conv, err := w.NewConversation(leads.ClientMeta{Page: "terminal", UserAgent: "chatcli/" + chatbot.Version})
	if err != nil {
		return err
	}

	var scheduler presenter.Scheduler = presenter.ImmediateScheduler{}
	if typing {
		scheduler = presenter.RealtimeScheduler{}
	}
	t := newTerminal(os.Stdout, opts)
	t.typing = typing
	t.header(time.Now())
	return t.loop(ctx, conv, scheduler, os.Stdin)
}

// terminal renders frames as colored lines and maps typed input back to
// conversation events.
type terminal struct {
	out     io.Writer
	opts    widget.Options
	offered []chatflow.Button
	enabled bool
	hint    string
	typing  bool

	bot    *color.Color
	button *color.Color
	muted  *color.Color
	alert  *color.Color
}

func newTerminal(out io.Writer, opts widget.Options) *terminal {
	return &terminal{
		out:    out,
		opts:   opts,
		bot:    color.New(color.FgCyan),
		button: color.New(color.FgYellow),
		muted:  color.New(color.FgHiBlack),
		alert:  color.New(color.FgRed, color.Bold),
	}
}

func (t *terminal) header(now time.Time) {
	color.New(color.FgWhite, color.Bold).Fprintf(t.out, "%s\n", t.opts.CompanyName)
	t.muted.Fprintf(t.out, "%s  (type /quit to leave)\n\n", t.opts.StatusLine(now))
}

// emit prints one frame. It satisfies presenter.EmitFunc.
func (t *terminal) emit(f presenter.Frame) error {
	switch f.Type {
	case presenter.FrameTyping:
		if t.typing {
			t.muted.Fprintln(t.out, "  ...")
		}
	case presenter.FrameMessage:
		text := f.Text
		if f.HTML {
			text = stripTags(text)
		}
		t.bot.Fprintf(t.out, "%s: ", t.opts.CompanyName)
		fmt.Fprintln(t.out, text)
	case presenter.FrameButtons:
		t.offered = f.Buttons
		for i, b := range f.Buttons {
			t.button.Fprintf(t.out, "  [%d] ", i+1)
			fmt.Fprintln(t.out, b.Label)
		}
	case presenter.FrameInput:
		t.enabled = f.Enabled != nil && *f.Enabled
		t.hint = f.Placeholder
		if t.enabled {
			t.offered = nil
		}
	case presenter.FrameDial:
		t.alert.Fprintf(t.out, "Call us: %s (%s)\n", t.opts.Phone, f.Href)
	case presenter.FrameError:
		t.alert.Fprintln(t.out, f.Text)
	}
	return nil
}

// resolve maps a typed line to a button press when the line is the number
// or label of an offered button. Anything else is sent as text.
func (t *terminal) resolve(line string) (choice string, ok bool) {
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(t.offered) {
		return t.offered[n-1].ID, true
	}
	for _, b := range t.offered {
		if strings.EqualFold(b.Label, line) {
			return b.ID, true
		}
	}
	return "", false
}

func (t *terminal) prompt() {
	switch {
	case len(t.offered) > 0 && !t.enabled:
		t.muted.Fprint(t.out, "choose> ")
	case t.hint != "":
		t.muted.Fprintf(t.out, "%s> ", t.hint)
	default:
		t.muted.Fprint(t.out, "> ")
	}
}

func (t *terminal) loop(ctx context.Context, conv *chatbot.Conversation, scheduler presenter.Scheduler, in io.Reader) error {
	play := func(tl presenter.Timeline) error {
		if err := scheduler.Play(ctx, tl, t.emit); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	conv.Open()
	if err := play(conv.Start(ctx)); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		t.prompt()
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out)
			return nil
		case l, more := <-lines:
			if !more {
				fmt.Fprintln(t.out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "/quit" || line == "/exit" {
			return nil
		}
		var tl presenter.Timeline
		if id, ok := t.resolve(line); ok {
			t.offered = nil
			tl = conv.Choose(ctx, id)
		} else {
			tl = conv.Send(ctx, line)
		}
		if err := play(tl); err != nil {
			return err
		}
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
