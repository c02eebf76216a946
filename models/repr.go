package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Repr quotes p for trace output, escaping non-printable bytes and truncating past strsize.
func Repr(p []byte, strsize int) string {
	tmp := make([]string, len(p))
	for i, b := range p {
		if b >= 0x20 && b <= 0x7e && b != '"' && b != '\\' {
			tmp[i] = string(b)
		} else {
			switch b {
			case '\n':
				tmp[i] = "\\n"
			case '\t':
				tmp[i] = "\\t"
			case '"', '\\':
				tmp[i] = "\\" + string(b)
			default:
				tmp[i] = fmt.Sprintf("\\x%02x", b)
			}
		}
	}
	if strsize > 0 && len(tmp) > strsize {
		return "\"" + strings.Join(tmp[:strsize], "") + "\"..."
	}
	return "\"" + strings.Join(tmp, "") + "\""
}

// Printable reports whether p is mostly text.
func Printable(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	text := 0
	for _, b := range p {
		if b >= 0x20 && b <= 0x7e || b == '\n' || b == '\t' || b == '\r' {
			text++
		}
	}
	return text*4 >= len(p)*3
}

func HexDump(base uint64, mem []byte, bits int) []string {
	clean := func(p []byte) string {
		o := make([]byte, len(p))
		for i, c := range p {
			if c >= 0x20 && c <= 0x7e {
				o[i] = c
			} else {
				o[i] = '.'
			}
		}
		return string(o)
	}
	hexFmt := fmt.Sprintf("0x%%0%dx: ", bits/4)
	var out []string
	for i := 0; i < len(mem); i += 16 {
		end := i + 16
		if end > len(mem) {
			end = len(mem)
		}
		line := mem[i:end]
		enc := hex.EncodeToString(line)
		enc += strings.Repeat(" ", 32-len(enc))
		out = append(out, fmt.Sprintf(hexFmt, base+uint64(i))+enc+" ["+clean(line)+"]")
	}
	return out
}
