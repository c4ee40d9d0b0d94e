package generator

import (
	"slices"
	"testing"
)

func fibonacciGrammar() *LSystem {
	l := NewLSystem(NewRand(1, 4))
	l.ClearRules()
	l.AddRule('A', "AB", 1)
	l.AddRule('B', "A", 1)
	return l
}

func TestLSystemIterate(t *testing.T) {
	l := fibonacciGrammar()
	for gen, want := range []string{"A", "AB", "ABA", "ABAAB", "ABAABABA"} {
		if got := l.Iterate(gen); got != want {
			t.Errorf("generation %d: want %q, got %q", gen, want, got)
		}
	}
}

func TestLSystemKeepsSymbolWhenNoRuleFires(t *testing.T) {
	l := NewLSystem(NewRand(1, 4))
	l.ClearRules()
	l.AddRule('A', "B", 0)
	l.SetAxiom("AxA")
	if want, got := "AxA", l.Iterate(3); want != got {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLSystemLengthCap(t *testing.T) {
	l := NewLSystem(NewRand(1, 4))
	l.ClearRules()
	l.AddRule('A', "AA", 5) // clamped to 1
	if want, got := 1.0, l.Rules()[0].Probability; want != got {
		t.Fatalf("probability clamp: want %v, got %v", want, got)
	}
	if want, got := MaxLSystemLength, len(l.Iterate(20)); want != got {
		t.Fatalf("length: want %d, got %d", want, got)
	}
}

func TestToNotes(t *testing.T) {
	want := []int{60, 74, 64, 66, 67}
	if got := ToNotes("A+B-C[D]E", 60); !slices.Equal(want, got) {
		t.Fatalf("want %v, got %v", want, got)
	}
	// octave shifts stop at the top of the range
	if want, got := []int{127}, ToNotes("++++A", 120); !slices.Equal(want, got) {
		t.Fatalf("clamp: want %v, got %v", want, got)
	}
	if got := ToNotes("xyz", 60); len(got) != 0 {
		t.Fatalf("ignored symbols produced %v", got)
	}
}

func TestLSystemNextLoopsExpansion(t *testing.T) {
	l := fibonacciGrammar()
	l.SetGenerations(2) // ABA
	var got []int
	for i := 0; i < 6; i++ {
		got = append(got, l.Next(&Context{}, nil)[0].Pitch)
	}
	if want := []int{60, 62, 60, 60, 62, 60}; !slices.Equal(want, got) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestLSystemEmptyExpansion(t *testing.T) {
	l := NewLSystem(NewRand(1, 4))
	l.SetAxiom("+-")
	if out := l.Next(&Context{}, nil); len(out) != 0 {
		t.Fatalf("want no candidates, got %v", out)
	}
}

func TestLSystemRulesOrdered(t *testing.T) {
	l := NewLSystem(NewRand(1, 4))
	var syms []byte
	for _, r := range l.Rules() {
		syms = append(syms, r.Symbol)
	}
	if want, got := "AABC", string(syms); want != got {
		t.Fatalf("want %q, got %q", want, got)
	}
}
