package models

import (
	"testing"
)

func TestConfigInit(t *testing.T) {
	var c Config
	c.Init()
	if c.Strsize != 30 || c.MaxStrLen != 4096 || c.StackSize != 8<<20 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Output == nil || c.LogOutput == nil {
		t.Fatal("outputs not defaulted")
	}
	c = Config{Strsize: 5}
	c.Init()
	if c.Strsize != 5 {
		t.Fatal("Init overwrote Strsize")
	}
}

func TestConfigFatal(t *testing.T) {
	c := Config{}
	if c.Fatal(1, true) {
		t.Error("default policy should be non-fatal")
	}
	c.UnimplementedFatal = true
	if !c.Fatal(1, true) || c.Fatal(1, false) {
		t.Error("UnimplementedFatal should only promote unknown syscalls")
	}
	c = Config{FatalSyscalls: map[int]bool{7: true}}
	if !c.Fatal(7, false) || c.Fatal(8, true) {
		t.Error("FatalSyscalls mismatch")
	}
	c = Config{FatalErrors: true}
	if !c.Fatal(8, false) {
		t.Error("FatalErrors should promote everything")
	}
}
