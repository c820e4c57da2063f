package app

import (
	"flag"
	"io"
	"testing"
)

func TestConfigBind(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.Bind(fs)

	err := fs.Parse([]string{"-sim", "experience", "-scale", "8", "-set", "layout=ledge", "-set", "w = 21"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Sim != "experience" || cfg.Scale != 8 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Set["layout"] != "ledge" || cfg.Set["w"] != "21" {
		t.Fatalf("unexpected overrides %v", cfg.Set)
	}
	if cfg.TPS != 20 || cfg.Seed != 1337 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestConfigBindRejectsBareSet(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.Bind(fs)
	if err := fs.Parse([]string{"-set", "layout"}); err == nil {
		t.Fatal("expected an error for an override without '='")
	}
}
