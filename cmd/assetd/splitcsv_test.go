package main

import "testing"

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestEnvStr(t *testing.T) {
	t.Setenv("ASSETD_TEST_KEY", "")
	if got := envStr("ASSETD_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("empty env -> %q, want fallback", got)
	}
	t.Setenv("ASSETD_TEST_KEY", "set")
	if got := envStr("ASSETD_TEST_KEY", "fallback"); got != "set" {
		t.Fatalf("set env -> %q, want set", got)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{" WARN ", "warn"},
		{"nonsense", "info"},
		{"", "info"},
	}
	for _, c := range cases {
		if got := newLogger(c.in).GetLevel().String(); got != c.want {
			t.Fatalf("newLogger(%q) level = %s, want %s", c.in, got, c.want)
		}
	}
}
