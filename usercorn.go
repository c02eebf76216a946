package sandcorn

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/lunixbochs/argjoy"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/arch"
	"github.com/lunixbochs/sandcorn/loader"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
	"github.com/lunixbochs/sandcorn/models/fs"
	"github.com/lunixbochs/sandcorn/models/trace"
)

type State int

const (
	Loaded State = iota
	Running
	Stopped
	Faulted
	Closed
)

var stateNames = []string{"loaded", "running", "stopped", "faulted", "closed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// default load address for position-independent images
const dynBase = 0x1000000

var _ models.Usercorn = (*Session)(nil)

type execRequest struct {
	loader     models.Loader
	exe        string
	argv, envp []string
}

// Session runs one guest image on one engine. It is not safe for concurrent
// use, except for Stop.
type Session struct {
	*Task

	config  models.Config
	log     hclog.Logger
	sysLog  hclog.Logger
	hookLog hclog.Logger

	loader     models.Loader
	exe        string
	base       uint64
	interpBase uint64
	entry      uint64
	startPC    uint64

	files    *fs.Table
	argjoy   argjoy.Argjoy
	bindings map[int]*models.Syscall

	hooks       [hookKinds][]*Hook
	engineHooks [hookKinds]cpu.Hook
	hookId      int
	stepping    bool
	stepCount   int

	state    State
	stopping atomic.Bool
	exited   bool
	exitCode int
	err      error
	pending  *execRequest

	straceOut io.Writer
	trace     *trace.Writer
	status    models.StatusDiff
}

// New loads exe from the host filesystem and prepares a session for it.
func New(exe string, cfg *models.Config) (*Session, error) {
	archName, osHint := "any", loader.NoOSHint
	if cfg != nil {
		if cfg.Arch != "" {
			archName = cfg.Arch
		}
		osHint = cfg.OS
	}
	l, err := loader.LoadFileArch(exe, archName, osHint)
	if err != nil {
		return nil, err
	}
	return NewFromLoader(l, exe, cfg)
}

// newJail picks the guest view of the filesystem.
func newJail(config *models.Config) (*fs.Jail, error) {
	if config.HostPassthrough {
		if config.Rootfs != "" {
			return nil, errors.New("Rootfs and HostPassthrough are mutually exclusive")
		}
		return fs.NewHostJail(), nil
	}
	jail, err := fs.NewJail(config.Rootfs)
	return jail, errors.Wrap(err, "rootfs")
}

// NewFromLoader prepares a session for an already loaded image. cfg is copied.
func NewFromLoader(l models.Loader, exe string, cfg *models.Config) (s *Session, err error) {
	var config models.Config
	if cfg != nil {
		config = *cfg
	}
	config.Init()
	archName, osName := l.Arch(), l.OS()
	if config.Arch != "" {
		archName = config.Arch
	}
	if config.OS != "" {
		osName = config.OS
	}
	a, osDesc, err := arch.GetOS(archName, osName)
	if err != nil {
		return nil, err
	}
	jail, err := newJail(&config)
	if err != nil {
		return nil, err
	}
	c, err := a.Cpu.New()
	if err != nil {
		return nil, errors.Wrap(err, "creating engine")
	}
	s = &Session{
		Task:      NewTask(c, a, osDesc, l.ByteOrder()),
		config:    config,
		files:     fs.NewTable(jail, config.Stdin, config.Stdout, config.Stderr),
		bindings:  make(map[int]*models.Syscall),
		straceOut: config.Output,
		status:    models.StatusDiff{Arch: a},
	}
	defer func() {
		if err != nil {
			s.Close()
			s = nil
		}
	}()
	s.maxStr = config.MaxStrLen
	s.log = config.NewLogger()
	s.sysLog = s.log.Named("syscall")
	s.hookLog = s.log.Named("hook")
	s.argjoy.Register(models.ArgCodec(s))
	s.argjoy.Register(argjoy.IntToInt)
	if f, ok := config.Output.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		s.straceOut = colorable.NewColorable(f)
	}
	if config.TraceFile != "" {
		f, ferr := os.Create(config.TraceFile)
		if ferr != nil {
			return nil, errors.Wrap(ferr, "creating trace file")
		}
		if s.trace, err = trace.NewWriter(f, a.Name, osDesc.Name, a.Bits); err != nil {
			f.Close()
			return nil, err
		}
	}
	if osDesc.Setup != nil {
		if err = osDesc.Setup(s); err != nil {
			return nil, errors.Wrap(err, "OS setup failed")
		}
	}
	if osDesc.Interrupt != nil {
		_, err = c.HookAdd(cpu.HOOK_INTR, func(_ cpu.Cpu, intno uint32) {
			if err := osDesc.Interrupt(s, intno); err != nil && s.err == nil {
				s.fault(err)
			}
		}, 1, 0)
		if err != nil {
			return nil, errors.Wrap(err, "installing interrupt hook")
		}
	}
	argv := append([]string{exe}, config.Args...)
	if err = s.load(l, exe, argv, config.Env); err != nil {
		return nil, err
	}
	s.state = Loaded
	s.log.Debug("loaded", "exe", exe, "arch", a.Name, "os", osDesc.Name, "entry", fmt.Sprintf("%#x", s.entry))
	return s, nil
}

// load maps an image, runs the OS stack setup, and points PC at the start address.
func (s *Session) load(l models.Loader, exe string, argv, env []string) error {
	base, entry, err := s.mapBinary(l, exe, s.config.ForceBase)
	if err != nil {
		return err
	}
	s.loader, s.exe, s.base, s.entry = l, exe, base, entry
	s.interpBase, s.startPC = 0, entry
	if interp := l.Interp(); interp != "" {
		if err := s.loadInterp(interp); err != nil {
			return err
		}
	}
	if s.os.Init != nil {
		if err := s.os.Init(s, argv, env); err != nil {
			return errors.Wrap(err, "OS init failed")
		}
	}
	return s.RegWrite(s.arch.PC, s.startPC)
}

func (s *Session) loadInterp(interp string) error {
	host, err := s.files.Jail().Resolve(interp)
	if err != nil {
		return err
	}
	l, err := loader.LoadFileArch(host, s.arch.Name, s.os.Name)
	if err != nil {
		return errors.Wrapf(err, "loading interpreter %s", interp)
	}
	base, entry, err := s.mapBinary(l, interp, 0)
	if err != nil {
		return err
	}
	s.interpBase, s.startPC = base, entry
	return nil
}

// mapBinary maps and fills an image's segments and returns its load bias and entry point.
// A position-independent image goes at force if set, else at the first free range past dynBase.
func (s *Session) mapBinary(l models.Loader, name string, force uint64) (base, entry uint64, err error) {
	var dynamic bool
	switch l.Type() {
	case models.EXEC:
	case models.DYN:
		dynamic = true
	default:
		return 0, 0, errors.New("unsupported image type")
	}
	segments, err := l.Segments()
	if err != nil {
		return 0, 0, err
	}
	merged := models.MergeSegments(segments, align)
	if len(merged) == 0 {
		return 0, l.Entry(), nil
	}
	low, high := merged[0].Start, merged[len(merged)-1].End
	if dynamic {
		if force != 0 {
			base = force - low
		} else {
			var ok bool
			if base, ok = s.memsim.FindFree(low+dynBase, high-low, s.addrLimit(), PAGE_SIZE); !ok {
				return 0, 0, errors.Errorf("no room for %s", name)
			}
			base -= low
		}
	}
	desc := filepath.Base(name)
	for _, m := range merged {
		if err := s.MemMapDesc(base+m.Start, m.End-m.Start, m.Prot, desc, nil); err != nil {
			return 0, 0, errors.Wrapf(err, "mapping %s", desc)
		}
	}
	for _, seg := range segments {
		data, err := seg.Data()
		if err != nil {
			return 0, 0, err
		}
		if err := s.MemWriteRaw(base+seg.Addr, data); err != nil {
			return 0, 0, errors.Wrapf(err, "writing %s segment", desc)
		}
	}
	if s.brkInit == 0 || base+high > s.brkInit {
		s.initBrk(base + high)
	}
	return base, base + l.Entry(), nil
}

func (s *Session) fault(err error) {
	if s.err == nil {
		s.err = err
	}
	s.state = Faulted
	s.engine.Stop()
}

// runEnd is the highest guest address, passed to the engine as the stop address.
func (s *Session) runEnd() uint64 {
	if s.bits >= 64 {
		return ^uint64(0)
	}
	return s.addrLimit() - 1
}

func (s *Session) canRun() error {
	if err := s.check(); err != nil {
		return err
	}
	switch {
	case s.state == Faulted:
		return errors.Wrap(s.err, "session faulted")
	case s.exited:
		return errors.New("guest has exited")
	case s.state != Loaded && s.state != Stopped:
		return errors.Errorf("cannot run a %s session", s.state)
	}
	return nil
}

// Run executes the guest until it exits, faults or is stopped.
// A non-zero exit is returned as models.ExitStatus.
func (s *Session) Run() error {
	if err := s.canRun(); err != nil {
		return err
	}
	s.state = Running
	s.stopping.Store(false)
	for {
		pc, err := s.RegRead(s.arch.PC)
		if err != nil {
			s.fault(err)
			return err
		}
		err = s.engine.Start(pc, s.runEnd())
		var exit models.ExitStatus
		if errors.As(err, &exit) {
			s.Exit(int(exit))
			err = nil
		}
		switch {
		case s.err != nil:
			s.state = Faulted
			return s.err
		case s.exited:
			s.state = Stopped
			if s.exitCode != 0 {
				return models.ExitStatus(s.exitCode)
			}
			return nil
		case err != nil:
			s.fault(errors.Wrap(err, "emulation failed"))
			return s.err
		case s.pending != nil:
			if err := s.doExec(); err != nil {
				s.fault(errors.Wrap(err, "exec failed"))
				return s.err
			}
			if s.stopping.Load() {
				s.state = Stopped
				return nil
			}
		default:
			s.state = Stopped
			return nil
		}
	}
}

// Stop halts emulation at the next opportunity. It may be called from hooks or another goroutine.
func (s *Session) Stop() error {
	if err := s.check(); err != nil {
		return err
	}
	s.stopping.Store(true)
	return s.engine.Stop()
}

// Step executes exactly one instruction.
func (s *Session) Step() error {
	if err := s.canRun(); err != nil {
		return err
	}
	// the code fan-out stops the engine before the second instruction
	if err := s.installEngineHook(hookCode); err != nil {
		return err
	}
	s.stepping, s.stepCount = true, 0
	defer func() { s.stepping = false }()
	return s.Run()
}

// Exit records the guest's exit status and stops the engine.
func (s *Session) Exit(code int) {
	s.exited = true
	s.exitCode = code
	s.engine.Stop()
}

// Exec schedules an in-place image replacement, performed by Run once the engine stops.
func (s *Session) Exec(path string, argv, envp []string) error {
	if err := s.check(); err != nil {
		return err
	}
	l, err := loader.LoadFileArch(path, "any", loader.NoOSHint)
	if err != nil {
		if errors.Is(err, loader.UnknownMagic) {
			return syscall.ENOEXEC
		}
		return err
	}
	if l.Arch() != s.arch.Name {
		s.sysLog.Warn("exec of foreign arch", "path", path, "arch", l.Arch())
		return syscall.ENOEXEC
	}
	s.pending = &execRequest{loader: l, exe: path, argv: argv, envp: envp}
	return s.engine.Stop()
}

// doExec swaps in the pending image, keeping the session and descriptor table.
func (s *Session) doExec() error {
	req := s.pending
	s.pending = nil
	for _, pg := range s.Mappings() {
		if err := s.MemUnmap(pg.Addr, pg.Size); err != nil {
			return err
		}
	}
	s.brkInit, s.brk = 0, 0
	for _, enum := range s.arch.Regs {
		if err := s.RegWrite(enum, 0); err != nil {
			return err
		}
	}
	if err := s.load(req.loader, req.exe, req.argv, req.envp); err != nil {
		return err
	}
	s.log.Debug("exec", "exe", req.exe, "entry", fmt.Sprintf("%#x", s.entry))
	s.fireExec()
	return s.err
}

// Close releases descriptors, the trace writer and the engine. It is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	keep(s.files.CloseAll())
	if s.trace != nil {
		keep(s.trace.Close())
		s.trace = nil
	}
	keep(s.engine.Close())
	s.closed = true
	s.state = Closed
	return first
}

func (s *Session) State() State {
	return s.state
}

// ExitCode returns the guest exit status, and whether it has exited.
func (s *Session) ExitCode() (int, bool) {
	return s.exitCode, s.exited
}

// Err returns the error that faulted the session, if any.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) Config() *models.Config {
	return &s.config
}

func (s *Session) Log() hclog.Logger {
	return s.log
}

func (s *Session) Files() *fs.Table {
	return s.files
}

func (s *Session) Argjoy() *argjoy.Argjoy {
	return &s.argjoy
}

func (s *Session) Exe() string {
	return s.exe
}

func (s *Session) Loader() models.Loader {
	return s.loader
}

// Base is the main image's load bias.
func (s *Session) Base() uint64 {
	return s.base
}

func (s *Session) InterpBase() uint64 {
	return s.interpBase
}

// Entry is the main image's entry point, after relocation.
func (s *Session) Entry() uint64 {
	return s.entry
}

// Status renders the registers, marking those changed since the last call.
func (s *Session) Status(onlyChanged bool) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	changes, err := s.status.Changes(s, onlyChanged)
	if err != nil {
		return "", err
	}
	return changes.String(s.config.Color), nil
}
