package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokenpkg/internal/core/ports"
)

var sample = ports.BrokenDependencyReport{
	Package: "yay-bin",
	File:    "/usr/bin/yay",
	Lines: []ports.DiagnosticLine{
		{Raw: "yay: error while loading shared libraries: libalpm.so.13: cannot open", Message: " libalpm.so.13: cannot open", HasMessage: true},
		{Raw: "odd line"},
	},
}

func TestRenderer_Plain(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, false)

	require.NoError(t, r.PackageHeader("yay-bin"))
	require.NoError(t, r.FileReport(sample))

	assert.Equal(t, "yay-bin\n", out.String())
	assert.Equal(t,
		"    └── /usr/bin/yay\n"+
			"        └── libalpm.so.13: cannot open\n"+
			"        └──odd line\n",
		errOut.String())
}

func TestRenderer_ColorsAreForced(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, true)

	require.NoError(t, r.PackageHeader("yay-bin"))
	require.NoError(t, r.FileReport(sample))

	assert.Contains(t, out.String(), "\x1b[34m")
	assert.Contains(t, out.String(), "yay-bin")
	assert.Contains(t, errOut.String(), "\x1b[31m")
	assert.Contains(t, errOut.String(), "    └── /usr/bin/yay\n")
	assert.NotContains(t, errOut.String(), "\x1b[31m    └──")
}

func TestPrintPaths(t *testing.T) {
	var buf bytes.Buffer
	PrintPaths(&buf, "/", "/var/lib/pacman/")
	assert.Equal(t, "Root     : /\nDB Path  : /var/lib/pacman/\n", buf.String())
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.PackageHeader("yay-bin"))
	require.NoError(t, c.FileReport(sample))
	second := sample
	second.File = "/usr/bin/yay-helper"
	require.NoError(t, c.FileReport(second))
	orphan := sample
	orphan.Package = "paru"
	require.NoError(t, c.FileReport(orphan))

	got := c.Packages()
	require.Len(t, got, 2)
	assert.Equal(t, "yay-bin", got[0].Name)
	assert.Len(t, got[0].Files, 2)
	assert.Equal(t, "paru", got[1].Name)

	got[0].Files[0].File = "mutated"
	assert.Equal(t, "/usr/bin/yay", c.Packages()[0].Files[0].File)

	c.Reset()
	assert.Empty(t, c.Packages())
}

type failingSink struct{ calls int }

func (f *failingSink) PackageHeader(string) error { f.calls++; return errors.New("boom") }
func (f *failingSink) FileReport(ports.BrokenDependencyReport) error {
	f.calls++
	return errors.New("boom")
}

func TestTee(t *testing.T) {
	c := NewCollector()
	var out, errOut bytes.Buffer
	tee := Tee{NewRenderer(&out, &errOut, false), c}
	require.NoError(t, tee.PackageHeader("yay-bin"))
	require.NoError(t, tee.FileReport(sample))
	assert.Len(t, c.Packages(), 1)
	assert.Equal(t, "yay-bin\n", out.String())

	f := &failingSink{}
	after := NewCollector()
	assert.Error(t, Tee{f, after}.PackageHeader("x"))
	assert.Empty(t, after.Packages())
}
