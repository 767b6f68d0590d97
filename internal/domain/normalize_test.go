package domain

import "testing"

func TestNormalizeWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim and lowercase", input: "  Haus  ", want: "haus"},
		{name: "diacritics stripped", input: "Müller", want: "muller"},
		{name: "accents stripped", input: "café", want: "cafe"},
		{name: "punctuation removed", input: "don't", want: "dont"},
		{name: "hyphen removed", input: "well-known", want: "wellknown"},
		{name: "spaces removed", input: "ice cream", want: "icecream"},
		{name: "digits kept", input: "catch-22", want: "catch22"},
		{name: "empty", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "mixed unicode", input: "Naïve Résumé", want: "naiveresume"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeWord(tt.input); got != tt.want {
				t.Errorf("NormalizeWord(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeWord_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"Müller", "  Haus  ", "don't", "Naïve Résumé", "español", "", "catch-22"}
	for _, in := range inputs {
		once := NormalizeWord(in)
		twice := NormalizeWord(once)
		if once != twice {
			t.Errorf("NormalizeWord not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizePartOfSpeech(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "Noun", want: "noun"},
		{input: "masculine noun", want: "noun"},
		{input: "Feminine Noun", want: "noun"},
		{input: "verb", want: "verb"},
		{input: "  Adjective ", want: "adjective"},
		{input: "", want: "pending"},
		{input: "   ", want: "pending"},
	}
	for _, tt := range tests {
		if got := NormalizePartOfSpeech(tt.input); got != tt.want {
			t.Errorf("NormalizePartOfSpeech(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLanguageCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "en", want: "en"},
		{input: "English", want: "en"},
		{input: "EN-US", want: "en"},
		{input: "Deutsch", want: "de"},
		{input: "german", want: "de"},
		{input: "Español", want: "es"},
		{input: "pt-BR", want: "pt"},
		{input: "auto", want: "auto"},
		{input: "", want: "auto"},
		{input: "klingon", want: "kl"},
		{input: "xx_YY", want: "xx"},
	}
	for _, tt := range tests {
		if got := LanguageCode(tt.input); got != tt.want {
			t.Errorf("LanguageCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		word   string
		src    string
		tgt    string
		pos    string
		wantPK string
		wantSK string
	}{
		{
			name: "without pos",
			word: "Haus", src: "German", tgt: "en",
			wantPK: "SRC#de#haus", wantSK: "TGT#en",
		},
		{
			name: "with pos",
			word: "Müller", src: "de", tgt: "Spanish", pos: "masculine noun",
			wantPK: "SRC#de#muller", wantSK: "TGT#es#POS#noun",
		},
		{
			name: "degrades on malformed input",
			word: "  ", src: "", tgt: "??",
			wantPK: "SRC#auto#", wantSK: "TGT#??",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			addr := BuildAddress(tt.word, tt.src, tt.tgt, tt.pos)
			if addr.PK != tt.wantPK {
				t.Errorf("pk: got %q, want %q", addr.PK, tt.wantPK)
			}
			if addr.SK != tt.wantSK {
				t.Errorf("sk: got %q, want %q", addr.SK, tt.wantSK)
			}
		})
	}
}

func TestWordRoute(t *testing.T) {
	t.Parallel()

	got := WordRoute("de", "en", "masculine noun", "Haus")
	want := "/words/de/en/noun/haus"
	if got != want {
		t.Errorf("WordRoute = %q, want %q", got, want)
	}

	got = WordRoute("en", "es", "", "run")
	want = "/words/en/es/pending/run"
	if got != want {
		t.Errorf("WordRoute = %q, want %q", got, want)
	}
}

func TestRouteForAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr StorageAddress
		want string
	}{
		{
			name: "full address",
			addr: StorageAddress{PK: "SRC#en#haus", SK: "TGT#es#POS#noun"},
			want: "/words/en/es/noun/haus",
		},
		{
			name: "address without pos",
			addr: StorageAddress{PK: "SRC#en#haus", SK: "TGT#es"},
			want: "/words/en/es/pending/haus",
		},
		{
			name: "opaque tokens fall back to request identifiers",
			addr: StorageAddress{PK: "blob", SK: "blob"},
			want: "/words/de/en/pending/haus",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RouteForAddress(tt.addr, "Haus", "de", "en"); got != tt.want {
				t.Errorf("RouteForAddress = %q, want %q", got, tt.want)
			}
		})
	}
}
