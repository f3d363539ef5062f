package cmd_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/awsutils/aws-config-assume-role/cmd"
)

func Test_helpers_for_command(t *testing.T) {
	ttests := map[string]struct{}{
		"get":         {},
		"clear-cache": {},
		"version":     {},
	}
	for name := range ttests {
		t.Run(name, func(t *testing.T) {
			cmdArgs := []string{name, "--help"}
			b := new(bytes.Buffer)
			o := new(bytes.Buffer)
			cmd := cmd.RootCmd
			cmd.SetArgs(cmdArgs)
			cmd.SetErr(b)
			cmd.SetOut(o)
			cmd.Execute()
			err, _ := io.ReadAll(b)
			if len(err) > 0 {
				t.Fatal("got err, wanted nil")
			}
			out, _ := io.ReadAll(o)
			if len(out) <= 0 {
				t.Fatalf("got empty, wanted a help message")
			}
		})
	}
}

func Test_get_rejects_negative_reload_before(t *testing.T) {
	cmdArgs := []string{"get", "--reload-before", "-10"}
	b := new(bytes.Buffer)
	o := new(bytes.Buffer)
	cmd := cmd.RootCmd
	// reset help flags set by earlier tests on the shared RootCmd tree
	for _, c := range cmd.Commands() {
		if f := c.Flags().Lookup("help"); f != nil {
			f.Value.Set("false")
			f.Changed = false
		}
	}
	cmd.SetArgs(cmdArgs)
	cmd.SetErr(b)
	cmd.SetOut(o)
	if err := cmd.Execute(); err == nil {
		t.Fatal("got <nil>, wanted validation error")
	}
}
