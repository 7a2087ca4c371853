package keys

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Taco Night!!", "taco night"},
		{"  taco   NIGHT ", "taco night"},
		{"Taco\tNight", "taco night"},
		{"Ana's Birthday Brunch", "anas birthday brunch"},
		{"pot-luck  #3", "pot-luck 3"},
		{"Crème brûlée", "crme brle"},
		{"!!!", ""},
		{"", ""},
		{"a ! b", "a b"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeEquivalentTitles(t *testing.T) {
	titles := []string{"Taco Night!!", "taco night", "TACO    NIGHT", "Taco, Night.", "\ntaco night\n"}
	want := Normalize(titles[0])
	for _, title := range titles[1:] {
		if got := Normalize(title); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, title := range []string{"Taco Night!!", " Sunday  Roast ", "ÜBER pizza-party"} {
		once := Normalize(title)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", title, once, twice)
		}
	}
}

func TestArtifactName(t *testing.T) {
	if got := ArtifactName("taco night"); got != "taco-night" {
		t.Errorf("expected taco-night, got %s", got)
	}
	if got := ArtifactName(Normalize("Pot-Luck   Friday")); got != "pot-luck-friday" {
		t.Errorf("expected pot-luck-friday, got %s", got)
	}
	if got := ArtifactName(""); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
}
