//go:build !(linux || darwin || freebsd)

package models

import "os"

func hostStat(st *Stat, fi os.FileInfo) {}
