package scale

import "testing"

func TestQuantizeIdempotent(t *testing.T) {
	for typ := Chromatic; typ < Custom; typ++ {
		for root := 0; root < 12; root++ {
			q := NewQuantizer(root, typ)
			for p := 0; p <= 127; p++ {
				once := q.Quantize(p)
				if !q.Contains(once) {
					t.Fatalf("%v root %d: Quantize(%d) = %d not in scale", typ, root, p, once)
				}
				if twice := q.Quantize(once); twice != once {
					t.Fatalf("%v root %d: Quantize(Quantize(%d)) = %d, want %d", typ, root, p, twice, once)
				}
			}
		}
	}
}

func TestQuantizeNearest(t *testing.T) {
	tests := []struct {
		root  int
		typ   Type
		pitch int
		want  int
	}{
		{0, Major, 60, 60},
		{0, Major, 61, 60}, // tie between C and D goes to first interval
		{0, Major, 66, 65},
		{0, Major, 71, 71},
		{0, MinorPentatonic, 61, 60},
		{0, MinorPentatonic, 62, 63},
		{0, MinorPentatonic, 71, 72}, // octave root wins the tie with Bb
		{11, Major, 60, 59}, // B major: C is between B and C#
		{2, Dorian, 61, 62},
		{0, Chromatic, 61, 61},
		{0, Major, 200, 127},
		{0, Major, -5, 0},
	}
	for _, tt := range tests {
		q := NewQuantizer(tt.root, tt.typ)
		if got := q.Quantize(tt.pitch); got != tt.want {
			t.Errorf("root %d %v: Quantize(%d) = %d, want %d", tt.root, tt.typ, tt.pitch, got, tt.want)
		}
	}
}

func TestQuantizeUpDown(t *testing.T) {
	q := NewQuantizer(0, Major)
	if want, got := 62, q.QuantizeUp(61); want != got {
		t.Errorf("QuantizeUp(61): want %d, got %d", want, got)
	}
	if want, got := 60, q.QuantizeDown(61); want != got {
		t.Errorf("QuantizeDown(61): want %d, got %d", want, got)
	}
	if want, got := 72, q.QuantizeUp(72); want != got {
		t.Errorf("QuantizeUp(72): want %d, got %d", want, got)
	}
	// B is in C major, so 71 rounds up to itself and 70 wraps down to A
	if want, got := 69, q.QuantizeDown(70); want != got {
		t.Errorf("QuantizeDown(70): want %d, got %d", want, got)
	}
}

func TestRootStoredModTwelve(t *testing.T) {
	q := NewQuantizer(26, Major)
	if want, got := 2, q.Root(); want != got {
		t.Fatalf("root: want %d, got %d", want, got)
	}
	q.SetRoot(-1)
	if want, got := 11, q.Root(); want != got {
		t.Fatalf("root: want %d, got %d", want, got)
	}
}

func TestCustomScale(t *testing.T) {
	q := NewQuantizer(0, Major)
	q.SetCustom([]int{7, 0, 19, 12})
	if want, got := []int{0, 7}, q.Intervals(); len(want) != len(got) || want[0] != got[0] || want[1] != got[1] {
		t.Fatalf("custom intervals: want %v, got %v", want, got)
	}
	if want, got := 67, q.Quantize(66); want != got {
		t.Errorf("Quantize(66): want %d, got %d", want, got)
	}
	q.SetCustom(nil)
	if want, got := 12, len(q.Intervals()); want != got {
		t.Errorf("empty custom set: want %d intervals, got %d", want, got)
	}
}

func TestDegree(t *testing.T) {
	q := NewQuantizer(0, Major)
	tests := []struct{ n, want int }{
		{0, 60}, {1, 62}, {2, 64}, {7, 72}, {-1, 59},
	}
	for _, tt := range tests {
		if got := q.Degree(60, tt.n); got != tt.want {
			t.Errorf("Degree(60, %d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestNoteName(t *testing.T) {
	if want, got := "C4", NoteName(60); want != got {
		t.Errorf("want %s, got %s", want, got)
	}
	if want, got := "A#-1", NoteName(10); want != got {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"60", 60},
		{"C4", 60},
		{"c#4", 61},
		{"Bb3", 58},
		{"A-1", 9},
		{" G9 ", 127},
	}
	for _, tt := range tests {
		got, err := ParseNote(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseNote(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"", "H2", "C", "128", "G#9"} {
		if _, err := ParseNote(bad); err == nil {
			t.Errorf("ParseNote(%q) accepted", bad)
		}
	}
}
