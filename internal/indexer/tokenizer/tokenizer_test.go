package tokenizer

import "testing"

func TestTokenizeDropsStopWordsAndShortWords(t *testing.T) {
	tokens := Tokenize("The quick brown fox, a dog")
	want := []string{"quick", "brown", "fox", "dog"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens (%v), want %d", len(tokens), tokens, len(want))
	}
	for i, w := range want {
		if tokens[i].Term != w {
			t.Errorf("token %d = %q, want %q", i, tokens[i].Term, w)
		}
		if tokens[i].Position != i {
			t.Errorf("token %d position = %d, want %d", i, tokens[i].Position, i)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "the a of", "!!!"} {
		if got := Tokenize(text); len(got) != 0 {
			t.Errorf("Tokenize(%q) = %v, want none", text, got)
		}
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"shoes":    "sho",
		"stories":  "story",
		"indexing": "index",
		"red":      "red",
	}
	for in, want := range tests {
		if got := stem(in); got != want {
			t.Errorf("stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSelectsTokenizer(t *testing.T) {
	simple, err := New("")
	if err != nil {
		t.Fatalf("New(\"\"): %v", err)
	}
	if got := simple.Tokenize("red shoes"); len(got) != 2 {
		t.Errorf("simple tokenizer returned %v", got)
	}

	std, err := New("standard")
	if err != nil {
		t.Fatalf("New(standard): %v", err)
	}
	got := std.Tokenize("Red Shoes and Hats")
	want := []string{"red", "shoes", "hats"}
	if len(got) != len(want) {
		t.Fatalf("standard tokens = %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i].Term != w {
			t.Errorf("token %d = %q, want %q", i, got[i].Term, w)
		}
	}
	if got[0].Position != 0 {
		t.Errorf("first position = %d, want 0", got[0].Position)
	}

	if _, err := New("no-such-analyzer"); err == nil {
		t.Error("expected error for unknown analyzer")
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := `Distributed search engines process queries across multiple shards to achieve
        horizontal scalability. Each shard maintains its own inverted index and responds
        to queries independently.`
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}
