package engine

import "testing"

func TestStreamModeFromOption(t *testing.T) {
	cases := []struct {
		in   string
		want streamMode
	}{
		{"0", streamDisable},
		{"1", streamCopy},
		{"2", streamRedirect},
		{"", streamDisable},
		{"garbage", streamDisable},
	}
	for _, c := range cases {
		if got := streamModeFromOption(c.in); got != c.want {
			t.Errorf("streamModeFromOption(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestStreamKindString(t *testing.T) {
	if streamStdout.String() != "stdout" {
		t.Errorf("streamStdout.String() = %q, want stdout", streamStdout.String())
	}
	if streamStderr.String() != "stderr" {
		t.Errorf("streamStderr.String() = %q, want stderr", streamStderr.String())
	}
}
