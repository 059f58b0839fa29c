package chain

import (
	"errors"
	"strings"
	"testing"
)

const testText = "Hey guys, did you know that Vaporeon can learn Mist in Yellow, " +
	"but only under a very specific circumstance? In Yellow, Vaporeon is meant to " +
	"learn both Haze and Mist at level 42. However, the programming at the time is " +
	"so bad it's impossible for a Pokemon to learn two moves at the same level."

func TestGenerateZeroLength(t *testing.T) {
	c := newTestChain(t, 2, testText)

	if out := c.Generate(0, newRand(1)); out != "" {
		t.Errorf("Generate(0) = %q, want empty string", out)
	}
	if tokens := c.GenerateTokens(0, newRand(1)); len(tokens) != 0 {
		t.Errorf("GenerateTokens(0) = %v, want no tokens", tokens)
	}
	if tokens := c.GenerateTokens(-5, newRand(1)); len(tokens) != 0 {
		t.Errorf("GenerateTokens(-5) = %v, want no tokens", tokens)
	}
}

func TestGenerateEmptyChain(t *testing.T) {
	c := newTestChain(t, 2)
	if out := c.Generate(10, newRand(1)); out != "" {
		t.Errorf("Generate on an untrained chain = %q, want empty string", out)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	c := newTestChain(t, 2, testText)

	for seed := uint64(1); seed <= 20; seed++ {
		a := c.Generate(25, newRand(seed))
		b := c.Generate(25, newRand(seed))
		if a != b {
			t.Fatalf("seed %d: generations diverged:\n%q\n%q", seed, a, b)
		}
	}
}

// With only one successor ever recorded for every reachable context the
// output is fully determined, whatever the random source does.
func TestGenerateSingleSuccessor(t *testing.T) {
	c := newTestChain(t, 1, "a a a a")

	if out := c.Generate(5, newRand(99)); out != "a a a a a" {
		t.Errorf("Generate(5) = %q, want \"a a a a a\"", out)
	}
}

// Generation stops at a terminal context and returns the shorter output.
func TestGenerateTerminalStop(t *testing.T) {
	c := newTestChain(t, 1, "x y z")

	out := c.GenerateTokens(10, newRand(1))
	want := []string{"x", "y", "z"}
	if len(out) != len(want) {
		t.Fatalf("GenerateTokens = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("GenerateTokens = %v, want %v", out, want)
		}
	}
}

func TestGenerateStart(t *testing.T) {
	c := newTestChain(t, 2, "one fish two fish. red fish blue fish.")

	testCases := []struct {
		name     string
		seed     string
		length   int
		expected string
		wantErr  error
	}{
		{
			name:     "continues a trained context",
			seed:     "one fish",
			length:   1,
			expected: "two",
		},
		{
			name:     "walks several deterministic steps",
			seed:     "one fish",
			length:   3,
			expected: "two fish. red",
		},
		{
			name:     "known tokens in an unseen sequence stop early",
			seed:     "blue one",
			length:   5,
			expected: "",
		},
		{
			name:    "unknown seed token fails",
			seed:    "green fish",
			length:  5,
			wantErr: ErrUnknownToken,
		},
		{
			name:     "empty seed behaves like Generate",
			seed:     "",
			length:   1,
			expected: "one",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := c.GenerateStart(tc.seed, tc.length, newRand(5))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("GenerateStart(%q) error = %v, want %v", tc.seed, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateStart(%q) failed: %v", tc.seed, err)
			}
			if out != tc.expected {
				t.Errorf("GenerateStart(%q) = %q, want %q", tc.seed, out, tc.expected)
			}
		})
	}
}

// The replayed seed never appears in the output.
func TestGenerateStartExcludesSeed(t *testing.T) {
	c := newTestChain(t, 2, testText)

	out, err := c.GenerateStart("did you", 10, newRand(2))
	if err != nil {
		t.Fatalf("GenerateStart failed: %v", err)
	}
	if strings.HasPrefix(out, "did you") {
		t.Errorf("output %q starts with the seed text", out)
	}
	if !strings.HasPrefix(out, "know") {
		t.Errorf("output %q does not continue the seed context", out)
	}
}

func TestGenerateShortContextsMatchTraining(t *testing.T) {
	// With order 3, the first two transitions of the text were recorded
	// under partial window keys. Generation from empty must walk them.
	c := newTestChain(t, 3, "alpha beta gamma delta")

	out := c.GenerateTokens(4, newRand(8))
	want := []string{"alpha", "beta", "gamma", "delta"}
	if len(out) != len(want) {
		t.Fatalf("GenerateTokens = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("GenerateTokens = %v, want %v", out, want)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	c := newTestChain(b, 2, testText)
	rng := newRand(1337)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := c.Generate(50, rng)
		b.SetBytes(int64(len(s)))
	}
}
