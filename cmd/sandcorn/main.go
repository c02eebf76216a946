package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"

	"github.com/lunixbochs/sandcorn"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

type strslice []string

func (s *strslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *strslice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// intset collects syscall numbers, e.g. -fatal 4 -fatal 0x5c
type intset map[int]bool

func (s intset) String() string {
	return fmt.Sprintf("%v", map[int]bool(s))
}

func (s intset) Set(value string) error {
	n, err := strconv.ParseInt(value, 0, 32)
	if err != nil {
		return err
	}
	s[int(n)] = true
	return nil
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func printError(err error, verbose bool) {
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	if !verbose {
		return
	}
	var st stackTracer
	if errors.As(err, &st) {
		for _, f := range st.StackTrace() {
			fmt.Fprintf(os.Stderr, "  %s:%d %n()\n", f, f, f)
		}
	}
}

// defaultFlags reads extra arguments from the "flags" file in the user config directories.
func defaultFlags() []string {
	var args []string
	dirs := configdir.New("sandcorn", "")
	for _, dir := range dirs.QueryFolders(configdir.All) {
		if !dir.Exists("flags") {
			continue
		}
		if data, err := dir.ReadFile("flags"); err == nil {
			args = append(args, strings.Fields(string(data))...)
		}
	}
	return args
}

func main() {
	flags := flag.NewFlagSet("sandcorn", flag.ExitOnError)
	archName := flags.String("arch", "", "override the detected architecture")
	osName := flags.String("os", "", "override the detected OS")
	rootfs := flags.String("root", "", "guest filesystem root")
	hostfs := flags.Bool("host", false, "give the guest the host filesystem instead of -root")
	strace := flags.Bool("strace", false, "trace syscalls")
	strsize := flags.Int("strsize", models.DefaultStrsize, "truncate -strace'd strings to this length")
	tracefile := flags.String("to", "", "write a binary syscall trace to this file")
	outfile := flags.String("o", "", "redirect -strace output to file (default stderr)")
	verbose := flags.Bool("v", false, "verbose output")
	loglevel := flags.String("loglevel", "warn", "log level (trace, debug, info, warn, error)")
	color := flags.Bool("color", isatty.IsTerminal(os.Stderr.Fd()), "colour -strace output")
	base := flags.Uint64("base", 0, "force executable base address")
	stackSize := flags.Uint64("stack", models.DefaultStackSize, "guest stack size")
	fatalAll := flags.Bool("fatal-errors", false, "stop on any failed syscall")
	fatalUnimpl := flags.Bool("fatal-unimplemented", false, "stop on unimplemented syscalls")
	fatal := make(intset)
	flags.Var(fatal, "fatal", "stop if this syscall number fails (repeatable)")
	var envSet strslice
	flags.Var(&envSet, "set", "set environment var in the form name=value")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <exe> [args...]\n\nOptions:\n", os.Args[0])
		flags.PrintDefaults()
	}
	flags.Parse(append(defaultFlags(), os.Args[1:]...))
	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		os.Exit(1)
	}
	if (*rootfs == "") == !*hostfs {
		fmt.Fprintln(os.Stderr, "exactly one of -root or -host is required")
		os.Exit(1)
	}

	env := os.Environ()
	for _, v := range envSet {
		if !strings.Contains(v, "=") {
			fmt.Fprintf(os.Stderr, "warning: skipping invalid env set %#v\n", v)
			continue
		}
		env = append(env, v)
	}

	config := &models.Config{
		Arch:   *archName,
		OS:     *osName,
		Rootfs: *rootfs,
		Args:   args[1:],
		Env:    env,

		HostPassthrough: *hostfs,

		Stdin:  fs.NoClose(os.Stdin),
		Stdout: fs.NoClose(os.Stdout),
		Stderr: fs.NoClose(os.Stderr),

		LogLevel:  *loglevel,
		Verbose:   *verbose,
		Color:     *color,
		TraceSys:  *strace,
		TraceFile: *tracefile,
		Strsize:   *strsize,
		StackSize: *stackSize,
		ForceBase: *base,

		FatalErrors:        *fatalAll,
		UnimplementedFatal: *fatalUnimpl,
		FatalSyscalls:      fatal,
	}
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			printError(err, *verbose)
			os.Exit(1)
		}
		defer out.Close()
		config.Output = out
	}

	s, err := sandcorn.New(args[0], config)
	if err != nil {
		printError(err, *verbose)
		os.Exit(1)
	}
	err = s.Run()
	s.Close()
	var status models.ExitStatus
	switch {
	case errors.As(err, &status):
		os.Exit(int(status))
	case err != nil:
		printError(err, *verbose)
		os.Exit(1)
	}
	if code, exited := s.ExitCode(); exited {
		os.Exit(code)
	}
}
