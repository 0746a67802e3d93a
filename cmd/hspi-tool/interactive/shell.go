// Package interactive provides the hspi-tool command shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/discovery"
	"github.com/hspi-sdk/hspi-go/pkg/energy"
	"github.com/hspi-sdk/hspi-go/pkg/examples"
	"github.com/hspi-sdk/hspi-go/pkg/featdef"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/persistence"
)

// Config wires the shell to the rest of the tool.
type Config struct {
	PluginID   string
	Controller controller.Controller

	// State receives the refs of registered devices (optional).
	State *persistence.PluginState

	// Energy backs the energy command (optional).
	Energy energy.Repository

	// Browser backs the discover command (optional).
	Browser *discovery.Browser

	// Readline is the terminal prompt Run reads from. Output goes to its
	// Stdout when set.
	Readline *readline.Instance

	Log *slog.Logger
}

// Shell is the interactive command loop. Commands can also be run one at
// a time with Exec.
type Shell struct {
	cfg     Config
	out     io.Writer
	samples map[string]*examples.Sample
	order   []string
}

// New creates a shell writing to stdout.
func New(cfg Config) *Shell {
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	s := &Shell{
		cfg:     cfg,
		out:     os.Stdout,
		samples: make(map[string]*examples.Sample),
	}
	if cfg.Readline != nil {
		s.out = cfg.Readline.Stdout()
	}
	return s
}

// SetOutput redirects command output.
func (s *Shell) SetOutput(w io.Writer) { s.out = w }

// NewReadline creates the shell prompt. Log output written to its Stdout
// does not garble the input line.
func NewReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hspi> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// Run reads commands until quit, end of input or ctx is done. Config.Readline
// must be set.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	rl := s.cfg.Readline
	defer rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
		if s.Exec(ctx, line) {
			cancel()
			return
		}
	}
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "load":
		s.cmdLoad(ctx, args)
	case "devices", "ls":
		s.cmdDevices()
	case "show":
		s.cmdShow(args)
	case "lookup":
		s.cmdLookup(args)
	case "event":
		s.cmdEvent(args)
	case "set":
		s.cmdSet(args)
	case "push":
		s.cmdPush(ctx, args)
	case "revert":
		s.cmdRevert(args)
	case "energy":
		s.cmdEnergy(ctx, args)
	case "discover":
		s.cmdDiscover(ctx)
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
HSPI Tool Commands:
  Devices:
    load <file.yaml>                  - Load device templates and create them
    devices                           - List loaded devices
    show <address>                    - Show a device and its features

  Features (<target> is <address>/<key>):
    lookup <target> <value>           - Show the control and graphic a value selects
    event <target> <value>            - Build the control event for a value
    set <target> <value>              - Stage a new value
    push [<address> | <target>]       - Send staged changes to the controller
    revert <target>                   - Drop staged changes

  Energy:
    energy <target> record [consumed|produced] [minutes]
    energy <target> summary [hours]
    energy prune <days>

  General:
    discover                          - Browse for controllers
    help                              - Show this help
    quit                              - Exit`)
}

// Load reads a template file and registers every device in it.
func (s *Shell) Load(ctx context.Context, path string) error {
	defs, err := featdef.Load(path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := s.register(ctx, def); err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
	}
	return nil
}

func (s *Shell) register(ctx context.Context, def *featdef.DeviceDef) error {
	df, err := def.Build(s.cfg.PluginID)
	if err != nil {
		return err
	}
	address := def.Address
	if address == "" {
		address = slug(def.Name)
	}
	if _, dup := s.samples[address]; dup {
		return fmt.Errorf("address %q already loaded", address)
	}
	keys := make([]string, len(def.Features))
	for i, fd := range def.Features {
		keys[i] = slug(fd.Name)
		if keys[i] == "" {
			keys[i] = "f" + strconv.Itoa(i)
		}
	}
	sample, err := examples.NewSample(address, df, keys...)
	if err != nil {
		return err
	}
	created, err := sample.Register(ctx, s.cfg.Controller, s.cfg.State)
	if err != nil {
		return err
	}
	s.samples[address] = sample
	s.order = append(s.order, address)

	verb := "reattached"
	if created {
		verb = "created"
	}
	fmt.Fprintf(s.out, "%s %s as ref %d with %d feature(s)\n", verb, address, sample.Device().Ref(), len(keys))
	s.cfg.Log.Info("device registered", "address", address, "ref", sample.Device().Ref(), "created", created)
	return nil
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

func (s *Shell) cmdLoad(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: load <file.yaml>")
		return
	}
	if err := s.Load(ctx, args[0]); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdDevices() {
	if len(s.order) == 0 {
		fmt.Fprintln(s.out, "No devices loaded")
		return
	}
	fmt.Fprintf(s.out, "\nDevices (%d):\n", len(s.order))
	fmt.Fprintln(s.out, "-------------------------------------------")
	for _, address := range s.order {
		sample := s.samples[address]
		d := sample.Device()
		fmt.Fprintf(s.out, "  %-20s ref %-5d %s (%s)\n", address, d.Ref(), d.Name(), strings.Join(sample.Keys(), ", "))
	}
}

func (s *Shell) cmdShow(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: show <address>")
		return
	}
	sample, ok := s.samples[args[0]]
	if !ok {
		fmt.Fprintf(s.out, "Unknown device: %s\n", args[0])
		return
	}
	d := sample.Device()
	fmt.Fprintf(s.out, "%s (ref %d)\n", d.Name(), d.Ref())
	if d.Location() != "" || d.Location2() != "" {
		fmt.Fprintf(s.out, "  Location: %s %s\n", d.Location(), d.Location2())
	}
	fmt.Fprintf(s.out, "  Misc:     %s\n", d.Misc())
	for _, key := range sample.Keys() {
		f := sample.Feature(key)
		fmt.Fprintf(s.out, "  %s/%s (ref %d) %s\n", sample.Address(), key, f.Ref(), f.Name())
		fmt.Fprintf(s.out, "      Value:  %v  Status: %q%s\n", f.Value(), f.Status(), stagedMark(f))
		for _, c := range f.StatusControls().Values() {
			fmt.Fprintf(s.out, "      Control %-14s %-12s use=%s label=%q\n",
				c.ControlType(), targetString(c.TargetRange() != nil, c.TargetValue(), c.TargetRange()), c.ControlUse(), c.Label())
		}
		for _, g := range f.StatusGraphics().Values() {
			fmt.Fprintf(s.out, "      Graphic %-27s %s label=%q\n",
				targetString(g.TargetRange() != nil, g.Anchor(), g.TargetRange()), g.ImagePath(), g.Label())
		}
	}
}

func stagedMark(f *model.Feature) string {
	if !f.HasChanges() {
		return ""
	}
	return fmt.Sprintf("  (%d staged)", len(f.Changes()))
}

func targetString(isRange bool, v float64, r fmt.Stringer) string {
	if isRange {
		return r.String()
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// feature resolves "<address>/<key>".
func (s *Shell) feature(target string) (*examples.Sample, string, *model.Feature, error) {
	address, key, ok := strings.Cut(target, "/")
	if !ok {
		return nil, "", nil, fmt.Errorf("feature target must be <address>/<key>, got %q", target)
	}
	sample, found := s.samples[address]
	if !found {
		return nil, "", nil, fmt.Errorf("unknown device %q", address)
	}
	f := sample.Feature(key)
	if f == nil {
		return nil, "", nil, fmt.Errorf("unknown feature %q on %s (have %s)", key, address, strings.Join(sample.Keys(), ", "))
	}
	return sample, key, f, nil
}

func (s *Shell) featureAndValue(usage string, args []string) (*model.Feature, float64, bool) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: "+usage)
		return nil, 0, false
	}
	_, _, f, err := s.feature(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, 0, false
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid value: %s\n", args[1])
		return nil, 0, false
	}
	return f, v, true
}

func (s *Shell) cmdLookup(args []string) {
	f, v, ok := s.featureAndValue("lookup <target> <value>", args)
	if !ok {
		return
	}
	if c, err := f.StatusControlForValue(v); err == nil {
		fmt.Fprintf(s.out, "  Control: %s use=%s label=%q\n", c.ControlType(), c.ControlUse(), c.LabelForValue(v))
	} else {
		fmt.Fprintf(s.out, "  Control: none (%v)\n", err)
	}
	if g, err := f.StatusGraphicForValue(v); err == nil {
		fmt.Fprintf(s.out, "  Graphic: %s label=%q\n", g.ImagePath(), g.Label())
	} else {
		fmt.Fprintln(s.out, "  Graphic: none")
	}
	fmt.Fprintf(s.out, "  Display: %s\n", f.DisplayedStatus(v))
}

func (s *Shell) cmdEvent(args []string) {
	f, v, ok := s.featureAndValue("event <target> <value>", args)
	if !ok {
		return
	}
	ev, err := f.CreateControlEvent(v)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "  ref=%d value=%v label=%q use=%s type=%s\n", ev.Ref, ev.Value, ev.Label, ev.ControlUse, ev.ControlType)
}

func (s *Shell) cmdSet(args []string) {
	f, v, ok := s.featureAndValue("set <target> <value>", args)
	if !ok {
		return
	}
	f.SetValue(v)
	f.SetStatus(f.DisplayedStatus(v))
	fmt.Fprintf(s.out, "Staged %v (%s), %d change(s) pending\n", v, f.Status(), len(f.Changes()))
}

func (s *Shell) cmdPush(ctx context.Context, args []string) {
	var entities []controller.Entity
	switch {
	case len(args) == 0:
		for _, address := range s.order {
			entities = append(entities, s.entities(s.samples[address])...)
		}
	case strings.Contains(args[0], "/"):
		_, _, f, err := s.feature(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		entities = append(entities, f)
	default:
		sample, ok := s.samples[args[0]]
		if !ok {
			fmt.Fprintf(s.out, "Unknown device: %s\n", args[0])
			return
		}
		entities = s.entities(sample)
	}

	sent := 0
	for _, e := range entities {
		if !e.HasChanges() {
			continue
		}
		if err := controller.Push(ctx, s.cfg.Controller, e); err != nil {
			fmt.Fprintf(s.out, "Push of ref %d failed: %v\n", e.Ref(), err)
			continue
		}
		sent++
	}
	fmt.Fprintf(s.out, "Pushed %d entit%s\n", sent, plural(sent, "y", "ies"))
}

func (s *Shell) entities(sample *examples.Sample) []controller.Entity {
	out := []controller.Entity{sample.Device()}
	for _, key := range sample.Keys() {
		out = append(out, sample.Feature(key))
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (s *Shell) cmdRevert(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: revert <target>")
		return
	}
	_, _, f, err := s.feature(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	n := len(f.Changes())
	f.RevertChanges()
	fmt.Fprintf(s.out, "Reverted %d change(s)\n", n)
}

func (s *Shell) cmdEnergy(ctx context.Context, args []string) {
	repo := s.cfg.Energy
	if repo == nil {
		fmt.Fprintln(s.out, "Energy log not configured")
		return
	}
	if len(args) == 2 && args[0] == "prune" {
		days, err := strconv.Atoi(args[1])
		if err != nil || days < 0 {
			fmt.Fprintf(s.out, "Invalid days: %s\n", args[1])
			return
		}
		n, err := repo.Prune(ctx, time.Now().Add(-time.Duration(days)*24*time.Hour))
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "Pruned %d record(s)\n", n)
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: energy <target> record [consumed|produced] [minutes] | energy <target> summary [hours] | energy prune <days>")
		return
	}

	_, _, f, err := s.feature(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	switch args[1] {
	case "record":
		dir := energy.DirectionConsumed
		span := 15 * time.Minute
		if len(args) > 2 {
			if dir, err = energy.ParseDirection(args[2]); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return
			}
		}
		if len(args) > 3 {
			minutes, err := strconv.Atoi(args[3])
			if err != nil || minutes < 0 {
				fmt.Fprintf(s.out, "Invalid minutes: %s\n", args[3])
				return
			}
			span = time.Duration(minutes) * time.Minute
		}
		rec, err := energy.RecordFeature(ctx, repo, f, dir, span)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "Recorded %v %s over %s (id %d)\n", rec.Amount, rec.Direction, rec.Range, rec.ID)

	case "summary":
		hours := 24
		if len(args) > 2 {
			if hours, err = strconv.Atoi(args[2]); err != nil || hours <= 0 {
				fmt.Fprintf(s.out, "Invalid hours: %s\n", args[2])
				return
			}
		}
		sum, err := repo.Summarize(ctx, f.Ref(), time.Now().Add(-time.Duration(hours)*time.Hour), time.Time{})
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "  Records:  %d\n  Consumed: %v\n  Produced: %v\n  Net:      %v\n",
			sum.Count, sum.Consumed, sum.Produced, sum.Net())

	default:
		fmt.Fprintf(s.out, "Unknown energy action: %s\n", args[1])
	}
}

func (s *Shell) cmdDiscover(ctx context.Context) {
	if s.cfg.Browser == nil {
		fmt.Fprintln(s.out, "Discovery not configured")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	results, err := s.cfg.Browser.Browse(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Browsing for controllers...")
	found := 0
	for svc := range results {
		found++
		fmt.Fprintf(s.out, "  %-24s %s id=%s version=%d\n", svc.InstanceName, svc.Address(), svc.InstanceID, svc.Version)
	}
	if found == 0 && !errors.Is(ctx.Err(), context.Canceled) {
		fmt.Fprintln(s.out, "No controllers found")
	}
}
