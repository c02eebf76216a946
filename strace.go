package sandcorn

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

var (
	colorName  = ansi.ColorFunc("cyan+b")
	colorErrno = ansi.ColorFunc("red")
)

func hexArg(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// traceArg renders argument i by kind. Buffers use the following length argument when present.
func (s *Session) traceArg(a *models.Args, i int, ret uint64, ok bool) string {
	val := a.Uint(i)
	kind := models.INT
	if i < len(a.Kinds) {
		kind = a.Kinds[i]
	}
	length := func() (uint64, bool) {
		if i+1 < len(a.Kinds) && a.Kinds[i+1] == models.LEN {
			return a.Uint(i + 1), true
		}
		return 0, false
	}
	strsize := s.config.Strsize
	switch kind {
	case models.STR:
		if str, err := s.ReadCString(val); err == nil {
			return models.Repr([]byte(str), strsize)
		}
		return hexArg(val)
	case models.BUF:
		if n, has := length(); has {
			if n > uint64(strsize) {
				n = uint64(strsize) + 1
			}
			if mem, err := s.MemRead(val, n); err == nil {
				return models.Repr(mem, strsize)
			}
		}
		return hexArg(val)
	case models.OBUF:
		// filled by the call; ret is the byte count on success
		if n, has := length(); has && ok && ret <= n {
			if ret > uint64(strsize) {
				ret = uint64(strsize) + 1
			}
			if mem, err := s.MemRead(val, ret); err == nil {
				return models.Repr(mem, strsize)
			}
		}
		return hexArg(val)
	case models.PTR, models.ENUM, models.OFF:
		return hexArg(val)
	case models.FD, models.PID:
		return fmt.Sprintf("%d", a.Fd(i))
	default:
		return fmt.Sprintf("%d", a.Int(i))
	}
}

// strace formats one completed call as name(args) = ret.
func (s *Session) strace(a *models.Args, retKind int, ret uint64, errno string, exited, color bool) string {
	args := make([]string, len(a.Raw))
	for i := range a.Raw {
		args[i] = s.traceArg(a, i, ret, errno == "")
	}
	name := a.Name
	if color {
		name = colorName(name)
	}
	var result string
	switch {
	case exited:
		result = "?"
	case errno != "":
		result = "-1 " + errno
		if color {
			result = colorErrno(result)
		}
	case retKind == models.PTR:
		result = hexArg(ret)
	default:
		result = fmt.Sprintf("%d", cpu.SignExtend(ret, s.Bits()))
	}
	return fmt.Sprintf("%s(%s) = %s", name, strings.Join(args, ", "), result)
}
