package theme

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlasmaParses(t *testing.T) {
	p := Plasma()
	if want, got := "plasma", p.Name; want != got {
		t.Fatalf("name: want %q, got %q", want, got)
	}
	if want, got := 9, len(p.Colors); want != got {
		t.Fatalf("colors: want %d, got %d", want, got)
	}
}

func TestParseGPLSkipsJunk(t *testing.T) {
	src := "GIMP Palette\nName: two\nColumns: 2\n# comment\n0 0 0 black\n300 0 0 bad\nx y z\n255 255 255\t white\n"
	p, err := ParseGPL(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 2, len(p.Colors); want != got {
		t.Fatalf("colors: want %d, got %d", want, got)
	}
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Fatal("empty palette accepted")
	}
}

func TestLookupEndsAndMiddle(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {255, 255, 255}}}
	if want, got := (RGB{0, 0, 0}), p.Lookup(-1); want != got {
		t.Errorf("below: want %v, got %v", want, got)
	}
	if want, got := (RGB{255, 255, 255}), p.Lookup(2); want != got {
		t.Errorf("above: want %v, got %v", want, got)
	}
	mid := p.Lookup(0.5)
	if mid[0] < 90 || mid[0] > 150 || absDiff(mid[0], mid[1]) > 1 || absDiff(mid[1], mid[2]) > 1 {
		t.Errorf("middle grey: %v", mid)
	}
}

func TestRGBHelpers(t *testing.T) {
	c := RGB{200, 100, 50}
	if want, got := (RGB{100, 50, 25}), c.Scale(0.5); want != got {
		t.Errorf("scale: want %v, got %v", want, got)
	}
	if want, got := "#c86432", c.Hex(); want != got {
		t.Errorf("hex: want %q, got %q", want, got)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestLoadGPLErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadGPL(filepath.Join(dir, "missing.gpl")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file: want ErrNotExist, got %v", err)
	}

	path := filepath.Join(dir, "empty.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\nName: empty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadGPL(path)
	if err == nil || !strings.Contains(err.Error(), path) || !strings.Contains(err.Error(), "no colors") {
		t.Fatalf("empty palette: got %v", err)
	}
}
