package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	hc11corn "github.com/lunixbochs/hc11corn/go"
	core "github.com/lunixbochs/hc11corn/go/cpu/hc11"
	"github.com/lunixbochs/hc11corn/go/debug"
	dcmd "github.com/lunixbochs/hc11corn/go/debug/cmd"
	"github.com/lunixbochs/hc11corn/go/loader"
	"github.com/lunixbochs/hc11corn/go/models"
	"github.com/lunixbochs/hc11corn/go/sched"
	"github.com/lunixbochs/hc11corn/go/ui"
)

type strslice []string

func (s *strslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *strslice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// HC11Cmd turns a command line into a Machine and drives it.
type HC11Cmd struct {
	Config  *models.Config
	Options *hc11corn.Options

	// SetupFlags may add flags before parsing, SetupMachine runs once the
	// machine exists and RunMachine replaces the default run.
	SetupFlags   func() error
	SetupMachine func() error
	RunMachine   func() error
	Teardown     func()

	Machine *hc11corn.Machine
	Flags   *flag.FlagSet
}

func NewHC11Cmd() *HC11Cmd {
	return &HC11Cmd{Flags: flag.NewFlagSet("cli", flag.ExitOnError)}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints err, and the stack it was created on when available.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	st, ok := err.(stackTracer)
	if !ok {
		return
	}
	var frames [][2]string
	width := 0
	for _, f := range st.StackTrace() {
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)
		frames = append(frames, [2]string{fileline, method})
		if len(fileline) > width {
			width = len(fileline)
		}
		if method == "main" {
			break
		}
	}
	for _, f := range frames {
		fmt.Fprintf(os.Stderr, "%s%s | %s()\n", f[0], strings.Repeat(" ", width-len(f[0])), f[1])
	}
}

// layout collects the machine description flags.
func layout(roms, rams, cpus []string, mailbox string) (*hc11corn.Options, error) {
	opts := &hc11corn.Options{}
	if mailbox != "" {
		addr, err := strconv.ParseUint(mailbox, 16, 16)
		if err != nil {
			return nil, errors.Errorf("bad mailbox address %q", mailbox)
		}
		opts.Mailbox = addr
	}
	for _, s := range roms {
		r, err := loader.ParseROM(s)
		if err != nil {
			return nil, err
		}
		opts.ROMs = append(opts.ROMs, r)
	}
	for _, s := range rams {
		r, err := loader.ParseRAM(s)
		if err != nil {
			return nil, err
		}
		opts.RAMs = append(opts.RAMs, r)
	}
	for _, s := range cpus {
		c, err := loader.ParseCore(s)
		if err != nil {
			return nil, err
		}
		opts.Cores = append(opts.Cores, c)
	}
	return opts, nil
}

func (c *HC11Cmd) Run(argv []string) int {
	fs := c.Flags
	var roms, rams, cpus, breaks strslice
	fs.Var(&roms, "rom", "map a ROM image, file[@addr] (S-records place themselves, raw images default to the top of memory)")
	fs.Var(&rams, "ram", "map external RAM, addr:size in hex")
	fs.Var(&cpus, "cpu", "add a core, name[:hz] (default one core named cpu0)")
	mailbox := fs.String("mailbox", "", "map a mailbox shared by every core at addr in hex")
	narrowIO := fs.Bool("io64", false, "64 byte register window (no PORTG/PORTH)")
	iram := fs.Int("iram", core.DefaultRAMSize, "internal RAM size in bytes")
	irqPeriod := fs.Float64("irq", 0, "pulse an interrupt line on every core each <seconds>")
	irqLine := fs.Int("irqline", core.IRQ_LINE, "line pulsed by -irq (0 irq, 1 xirq)")

	duration := fs.Float64("duration", 0, "emulated seconds to run (default until every core is idle)")
	quantum := fs.Float64("quantum", 0, "scheduler timeslice in seconds")

	// tracing flags
	trace := fs.Bool("trace", false, "trace everything: -etrace -mtrace -rtrace -itrace")
	etrace := fs.Bool("etrace", false, "trace execution")
	mtrace := fs.Bool("mtrace", false, "trace memory access")
	rtrace := fs.Bool("rtrace", false, "trace register modification")
	itrace := fs.Bool("itrace", false, "trace interrupts")
	tracefile := fs.String("to", "", "binary trace output file")
	disbytes := fs.Bool("disbytes", false, "show instruction bytes with disassembly")
	tnames := []string{"trace", "etrace", "mtrace", "rtrace", "itrace", "to", "disbytes"}

	inscount := fs.Bool("inscount", false, "print per core instruction and cycle counts after execution")
	verbose := fs.Bool("v", false, "verbose output")
	outfile := fs.String("o", "", "redirect debugging output to file (default stderr)")
	load := fs.String("load", "", "restore state from file before running")
	savepre := fs.String("savepre", "", "save state to file and exit before emulation starts")
	savepost := fs.String("savepost", "", "save state to file after emulation ends")

	fs.Var(&breaks, "break", "stop at addr[@cpu]")
	repl := fs.Bool("repl", false, "open a debugger prompt instead of running")
	tui := fs.Bool("tui", false, "open the full screen debugger instead of running")
	script := fs.String("x", "", "run debugger commands from file; the script drives execution unless -repl, -tui or -listen follows it")
	listen := fs.Int("listen", -1, "listen for debug connection on localhost:<port>")
	connect := fs.Int("connect", -1, "connect to remote debugger on localhost:<port>")

	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to <file>")
	memprofile := fs.String("memprofile", "", "write mem profile to <file>")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", argv[0])
		var flags, tflags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) {
			for _, name := range tnames {
				if name == f.Name {
					tflags = append(tflags, f)
					return
				}
			}
			flags = append(flags, f)
		})
		models.PrintFlags(os.Stderr, flags)
		fmt.Fprintf(os.Stderr, "\nTrace Options:\n")
		models.PrintFlags(os.Stderr, tflags)
		fmt.Fprintf(os.Stderr, "\nDebug Client:\n  %s -connect <port>\n", argv[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n  %s -rom monitor.s19 -ram 2000:2000 -cpu a -cpu b -etrace\n", argv[0])
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			PrintError(err)
			return 1
		}
	}
	fs.Parse(argv[1:])

	// connect to debug server (skips the rest)
	if *connect > 0 {
		addr := fmt.Sprintf("localhost:%d", *connect)
		if err := debug.RunClient(addr); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	if len(roms) == 0 && len(rams) == 0 && *load == "" {
		fs.Usage()
		return 1
	}

	opts, err := layout(roms, rams, cpus, *mailbox)
	if err != nil {
		PrintError(err)
		return 1
	}
	cfg := core.DefaultConfig()
	cfg.HasExtendedIO = !*narrowIO
	cfg.InternalRAMSize = *iram
	opts.CPU = cfg
	opts.IRQPeriod = *irqPeriod
	opts.IRQLine = *irqLine
	opts.Console = os.Stdout
	// the full screen debugger shows console and log output in a pane
	var screen *bytes.Buffer
	if *tui {
		screen = new(bytes.Buffer)
		opts.Console = screen
	}
	c.Options = opts

	config := &models.Config{
		Verbose:  *verbose,
		DisBytes: *disbytes,
		InsCount: *inscount,
		Duration: *duration,
		Quantum:  *quantum,
		SavePre:  *savepre,
		SavePost: *savepost,
		Trace: models.TraceConfig{
			Tracefile: *tracefile,
			Ins:       *etrace || *trace,
			Mem:       *mtrace || *trace,
			Reg:       *rtrace || *trace,
			Intr:      *itrace || *trace,
		},
	}
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			PrintError(errors.WithStack(err))
			return 1
		}
		config.Output = out
	} else if screen != nil {
		config.Output = nopCloser{screen}
	} else if fd := os.Stderr.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		config.Color = true
		config.Output = nopCloser{colorable.NewColorableStderr()}
	} else {
		config.Output = nopCloser{os.Stderr}
	}
	c.Config = config

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			PrintError(errors.WithStack(err))
			return 1
		}
		pprof.StartCPUProfile(f)
	}
	// won't run on early returns before this point
	teardown := func() {
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
		}
		if *memprofile != "" {
			f, err := os.Create(*memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not write heap profile: %s\n", err)
			} else {
				pprof.WriteHeapProfile(f)
				f.Close()
			}
		}
		if c.Teardown != nil {
			c.Teardown()
		}
	}
	defer teardown()

	m, err := hc11corn.NewMachine(config, opts)
	if err != nil {
		PrintError(err)
		return 1
	}
	defer m.Close()
	c.Machine = m
	for _, b := range breaks {
		if _, err := m.BreakAdd(b); err != nil {
			PrintError(err)
			return 1
		}
	}
	if *load != "" {
		if err := loadState(m, *load); err != nil {
			PrintError(err)
			return 1
		}
	}
	if c.SetupMachine != nil {
		if err := c.SetupMachine(); err != nil {
			PrintError(err)
			return 1
		}
	}
	if config.SavePre != "" {
		if err := saveState(m, config.SavePre); err != nil {
			PrintError(err)
			return 1
		}
		return 0
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	defer signal.Stop(sigint)
	go func() {
		for range sigint {
			m.Stop()
		}
	}()

	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			PrintError(errors.WithStack(err))
			return 1
		}
		err = debug.NewDebugger(m).Script(f, os.Stdout)
		f.Close()
		if err != nil {
			PrintError(err)
			return 1
		}
	}

	switch {
	case c.RunMachine != nil:
		err = c.RunMachine()
	case *tui:
		var t *ui.Tui
		if t, err = ui.NewTui(m, screen); err == nil {
			err = t.Run()
		}
	case *repl:
		var r *ui.Repl
		if r, err = ui.NewRepl(m); err == nil {
			err = r.Run()
		}
	case *listen > 0:
		var conn net.Conn
		if conn, err = debug.Accept(m.Log(), "localhost", strconv.Itoa(*listen)); err == nil {
			debug.NewDebugger(m).Run(conn)
		}
	case *script == "":
		err = c.run(m)
	}
	if err != nil {
		PrintError(err)
		return 1
	}

	if config.InsCount {
		c.insCount(m)
	}
	if config.SavePost != "" {
		if err := saveState(m, config.SavePost); err != nil {
			PrintError(err)
			return 1
		}
	}
	return 0
}

// run drives the machine for -duration, stopping at breakpoints.
func (c *HC11Cmd) run(m *hc11corn.Machine) error {
	d := sched.Never
	if c.Config.Duration > 0 {
		d = sched.FromSeconds(c.Config.Duration)
	}
	err := m.Run(d)
	if err == hc11corn.ErrIdle {
		m.Log().WithField("time", m.Sched().Now()).Info("all cores idle")
		return nil
	} else if err != nil {
		return err
	}
	if b := m.Hit(); b != nil {
		ctx := dcmd.NewContext(stdio{os.Stdin, os.Stderr}, m)
		ctx.Printf("breakpoint %s\n", b)
		ctx.Status(m.HitCore())
	}
	return nil
}

func (c *HC11Cmd) insCount(m *hc11corn.Machine) {
	for _, dev := range m.Cores() {
		e := m.Sched().Find(dev.Name())
		fmt.Fprintf(os.Stderr, "[%s] %d instructions, %d cycles\n", dev.Name(), m.Instructions(dev), e.TotalCycles())
	}
	fmt.Fprintf(os.Stderr, "[time] %s\n", m.Sched().Now())
}

type stdio struct {
	io.Reader
	io.Writer
}

func saveState(m *hc11corn.Machine, path string) error {
	state, err := m.Save()
	if err != nil {
		return err
	}
	return errors.WithStack(ioutil.WriteFile(path, state, 0644))
}

func loadState(m *hc11corn.Machine, path string) error {
	state, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	return m.Load(state)
}
