package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOverlay(t *testing.T) {
	t.Setenv("T_ADDR", ":9000")
	t.Setenv("T_N", "7")
	t.Setenv("T_D", "250ms")
	t.Setenv("T_B", "true")
	t.Setenv("T_L", "a, b,,c")
	t.Setenv("T_BLANK", "  ")

	addr, n, d, b := ":1", 1, time.Second, false
	blank := "keep"
	var list []string

	o := &Overlay{Prefix: "T_"}
	o.String("ADDR", &addr)
	o.Int("N", &n)
	o.Duration("D", &d)
	o.Bool("B", &b)
	o.List("L", &list)
	o.String("BLANK", &blank)
	if err := o.Err(); err != nil {
		t.Fatal(err)
	}
	if addr != ":9000" || n != 7 || d != 250*time.Millisecond || !b || blank != "keep" {
		t.Fatalf("got %q %d %v %v %q", addr, n, d, b, blank)
	}
	if len(list) != 3 || list[2] != "c" {
		t.Fatalf("list = %v", list)
	}
}

func TestOverlayCollectsErrors(t *testing.T) {
	t.Setenv("T_N", "seven")
	n := 1
	o := &Overlay{Prefix: "T_"}
	o.Int("N", &n)
	if o.Err() == nil || n != 1 {
		t.Fatalf("expected parse error and untouched value, got n=%d err=%v", n, o.Err())
	}
}

func TestLoadMissingFileIgnored(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	path := filepath.Join(t.TempDir(), "x.env")
	os.WriteFile(path, []byte("ENV_TEST_LOADED=yes\n"), 0o644)
	t.Cleanup(func() { os.Unsetenv("ENV_TEST_LOADED") })
	if err := Load(path); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("ENV_TEST_LOADED") != "yes" {
		t.Fatalf("variable not loaded")
	}
}
