package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

const scaleWorkspace = `<ProcessorNetwork>
  <Processors>
    <Processor type="org.procnet.Constant" identifier="Constant">
      <OutPorts><OutPort type="org.procnet.Float64Outport" identifier="value.outport"/></OutPorts>
      <Properties><Property type="org.procnet.Float64Property" identifier="value" content="2"/></Properties>
    </Processor>
    <Processor type="org.procnet.Scale" identifier="Scale">
      <InPorts><InPort type="org.procnet.Float64Inport" identifier="value.inport"/></InPorts>
      <OutPorts><OutPort type="org.procnet.Float64Outport" identifier="value.outport"/></OutPorts>
      <Properties><Property type="org.procnet.Float64Property" identifier="factor" content="3"/></Properties>
    </Processor>
    <Processor type="org.procnet.Printer" identifier="Printer">
      <InPorts><InPort type="org.procnet.Float64Inport" identifier="in"/></InPorts>
    </Processor>
  </Processors>
  <Connections>
    <Connection src="Constant.value.outport" dst="Scale.value.inport"/>
    <Connection src="Scale.value.outport" dst="Printer.in"/>
  </Connections>
</ProcessorNetwork>`

const failingWorkspace = `<ProcessorNetwork>
  <Processors>
    <Processor type="org.procnet.Constant" identifier="Constant">
      <OutPorts><OutPort type="org.procnet.Float64Outport" identifier="value.outport"/></OutPorts>
    </Processor>
    <Processor type="org.procnet.Failing" identifier="Failing">
      <InPorts><InPort type="org.procnet.Float64Inport" identifier="value.inport"/></InPorts>
      <OutPorts><OutPort type="org.procnet.Float64Outport" identifier="value.outport"/></OutPorts>
    </Processor>
    <Processor type="org.procnet.Printer" identifier="Printer">
      <InPorts><InPort type="org.procnet.Float64Inport" identifier="in"/></InPorts>
    </Processor>
  </Processors>
  <Connections>
    <Connection src="Constant.value.outport" dst="Failing.value.inport"/>
    <Connection src="Failing.value.outport" dst="Printer.in"/>
  </Connections>
</ProcessorNetwork>`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scale.xml", scaleWorkspace)

	t.Run("evaluates sinks", func(t *testing.T) {
		out, logs, err := execute(t, "run", path)
		assert.NoError(t, err)
		assert.Equal(t, "Printer: 6\n", out)
		assert.Contains(t, logs, "evaluated workspace")
	})

	t.Run("set property", func(t *testing.T) {
		out, _, err := execute(t, "run", path, "--set", "Constant.value=5", "--set", "Scale.factor=0.5")
		assert.NoError(t, err)
		assert.Equal(t, "Printer: 2.5\n", out)
	})

	t.Run("trace", func(t *testing.T) {
		_, logs, err := execute(t, "run", "--trace", path)
		assert.NoError(t, err)
		assert.Contains(t, logs, "processor=Scale")
	})

	t.Run("invalid assignment", func(t *testing.T) {
		_, _, err := execute(t, "run", path, "--set", "Constant.value")
		assert.Error(t, err)
		_, _, err = execute(t, "run", path, "--set", "Nope.value=1")
		assert.Error(t, err)
		_, _, err = execute(t, "run", path, "--set", "Constant.value=abc")
		assert.Error(t, err)
	})

	t.Run("processor failure", func(t *testing.T) {
		failing := writeFile(t, dir, "failing.xml", failingWorkspace)
		out, logs, err := execute(t, "run", failing)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Failing")
		assert.Equal(t, "", out)
		assert.Contains(t, logs, "processor failed")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "run", filepath.Join(dir, "missing.xml"))
		assert.Error(t, err)
	})
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "scale.xml", scaleWorkspace)
	failing := writeFile(t, dir, "failing.xml", failingWorkspace)
	broken := writeFile(t, dir, "broken.xml", "<ProcessorNetwork>")

	out, _, err := execute(t, "check", ok, failing, broken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 workspaces failed")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, "ok "+ok, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "FAIL "+failing), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "FAIL "+broken), lines[2])

	out, _, err = execute(t, "check", "-j", "1", ok)
	assert.NoError(t, err)
	assert.Equal(t, "ok "+ok+"\n", out)
}

func TestMigrate(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "scale.xml", scaleWorkspace)

	t.Run("stdout", func(t *testing.T) {
		out, _, err := execute(t, "migrate", in)
		assert.NoError(t, err)
		assert.Contains(t, out, "ModuleVersions")
		assert.NotContains(t, out, "value.outport")
		assert.Contains(t, out, `src="Constant.out" dst="Scale.in"`)
	})

	t.Run("output file", func(t *testing.T) {
		dst := filepath.Join(dir, "migrated.xml")
		_, logs, err := execute(t, "migrate", in, dst)
		assert.NoError(t, err)
		assert.Contains(t, logs, "migrated workspace")

		out, _, err := execute(t, "run", dst)
		assert.NoError(t, err)
		assert.Equal(t, "Printer: 6\n", out)

		// Migrating a current document changes nothing.
		before, err := os.ReadFile(dst)
		assert.NoError(t, err)
		_, _, err = execute(t, "migrate", "--in-place", dst)
		assert.NoError(t, err)
		after, err := os.ReadFile(dst)
		assert.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scale.xml", scaleWorkspace)
	storeDir := filepath.Join(dir, "store")
	assert.NoError(t, os.Mkdir(storeDir, 0o755))
	flags := []string{"--store", "dir", "--store-path", storeDir}
	storeCmd := func(args ...string) (string, error) {
		out, _, err := execute(t, append(args, flags...)...)
		return out, err
	}

	_, err := storeCmd("store", "put", "team/scale", path)
	assert.NoError(t, err)

	bad := writeFile(t, dir, "bad.xml", "not xml")
	_, err = storeCmd("store", "put", "team/bad", bad)
	assert.Error(t, err)

	out, err := storeCmd("store", "list")
	assert.NoError(t, err)
	assert.Equal(t, "team/scale\n", out)

	out, err = storeCmd("store", "get", "team/scale")
	assert.NoError(t, err)
	assert.Equal(t, scaleWorkspace, out)

	out, err = storeCmd("run", "--from-store", "team/scale")
	assert.NoError(t, err)
	assert.Equal(t, "Printer: 6\n", out)

	_, err = storeCmd("run", path, "--set", "Constant.value=5", "--save", "team/five")
	assert.NoError(t, err)
	out, err = storeCmd("run", "--from-store", "team/five")
	assert.NoError(t, err)
	assert.Equal(t, "Printer: 15\n", out)

	_, err = storeCmd("run", "--from-store", "team/missing")
	assert.Error(t, err)

	_, err = storeCmd("store", "delete", "team/scale")
	assert.NoError(t, err)
	_, err = storeCmd("store", "get", "team/scale")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	assert.NoError(t, os.Mkdir(storeDir, 0o755))
	cfg := writeFile(t, dir, "procnet.yaml", "logLevel: warn\nstore:\n  backend: dir\n  path: "+storeDir+"\n")
	path := writeFile(t, dir, "scale.xml", scaleWorkspace)

	_, logs, err := execute(t, "--config", cfg, "store", "put", "scale", path)
	assert.NoError(t, err)
	assert.Equal(t, "", logs)

	out, _, err := execute(t, "--config", cfg, "store", "list")
	assert.NoError(t, err)
	assert.Equal(t, "scale\n", out)

	_, _, err = execute(t, "--config", cfg, "--store", "nope", "store", "list")
	assert.Error(t, err)

	_, _, err = execute(t, "--config", filepath.Join(dir, "missing.yaml"), "store", "list")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)

	path := writeFile(t, t.TempDir(), "c.yaml", `
autoEvaluate: true
store:
  backend: s3
  s3:
    endpoint: localhost:9000
    bucket: workspaces
    prefix: team
`)
	cfg, err = loadConfig(path)
	assert.NoError(t, err)
	assert.True(t, cfg.AutoEvaluate)
	assert.Equal(t, "s3", cfg.Store.Backend)
	assert.Equal(t, "workspaces", cfg.Store.S3.Bucket)
	assert.Equal(t, "team", cfg.Store.S3.Prefix)
}
