package dialog

import "testing"

func TestExtractName(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"my name is Jane Doe", "Jane Doe", true},
		{"I'm John Smith", "John Smith", true},
		{"this is Maria", "Maria", true},
		{"Jane Doe", "Jane Doe", true},
		{"Jane Doe.", "Jane Doe", true},
		{"", "", false},
		{"555 123 4567", "", false},
		{"well it is a long story about me", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractName(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ExtractName(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"555-123-4567", "5551234567", true},
		{"my number is 555 123 4567", "5551234567", true},
		{"1-555-123-4567", "5551234567", true},
		{"(555) 123-4567", "5551234567", true},
		{"123456", "", false},
		{"no number", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractPhone(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ExtractPhone(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractZip(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"90210", "90210", true},
		{"it's 90210 thanks", "90210", true},
		{"9 0 2 1 0", "90210", true},
		{"902", "", false},
		{"my zip", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractZip(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ExtractZip(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestClassifyConsent(t *testing.T) {
	yes := []string{"yes", "yeah sure", "okay go ahead", "of course!"}
	no := []string{"no", "nope", "I'm not interested", "please stop"}
	unclear := []string{"what?", "hmm", "tell me more", "do you know what this is"}

	for _, s := range yes {
		if ClassifyConsent(s) != ConsentYes {
			t.Errorf("expected yes for %q", s)
		}
	}
	for _, s := range no {
		if ClassifyConsent(s) != ConsentNo {
			t.Errorf("expected no for %q", s)
		}
	}
	for _, s := range unclear {
		if ClassifyConsent(s) != ConsentUnclear {
			t.Errorf("expected unclear for %q", s)
		}
	}
}
