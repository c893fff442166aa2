package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestJobsCLIRejectsBadInvocations(t *testing.T) {
	c, err := NewJobsCLI("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new cli: %v", err)
	}
	defer c.Close()

	cases := []struct {
		name string
		args []string
		code int
		want string
	}{
		{name: "no command", args: nil, code: 2, want: "usage"},
		{name: "unknown command", args: []string{"purge"}, code: 2, want: "unknown jobs command"},
		{name: "missing job", args: []string{"trigger"}, code: 2, want: "job name required"},
		{name: "unknown job", args: []string{"trigger", "reindex"}, code: 1, want: "unsupported job"},
		{name: "bad period", args: []string{"trigger", "balances-warmup", "-period", "2024"}, code: 1, want: "invalid period"},
		{name: "bad flag", args: []string{"trigger", "gl-integrity", "-org", "x"}, code: 2, want: "invalid value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := c.Run(context.Background(), tc.args, &stdout, &stderr)
			if code != tc.code {
				t.Fatalf("expected exit %d, got %d (stderr %q)", tc.code, code, stderr.String())
			}
			if !strings.Contains(stderr.String(), tc.want) {
				t.Fatalf("expected stderr to contain %q, got %q", tc.want, stderr.String())
			}
		})
	}
}

func TestNewJobsCLIRequiresAddress(t *testing.T) {
	if _, err := NewJobsCLI(" "); err == nil {
		t.Fatal("expected error for empty address")
	}
}
