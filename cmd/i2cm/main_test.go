package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
)

func runCaptured(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	console.SetOutput(&out, &out)
	console.NoColor(true)
	t.Cleanup(func() {
		console.SetOutput(os.Stdout, os.Stderr)
	})
	code := run(append([]string{"i2cm"}, args...))
	return code, out.String()
}

func TestSimulatedCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{name: "scan", args: []string{"--sim", "scan"}, contains: "2 devices"},
		{name: "read", args: []string{"--sim", "read", "0x50", "4"}, contains: "69 32 63 6d"},
		{name: "read register", args: []string{"--sim", "read", "--register", "05", "0x50", "4"}, contains: "73 69 6d 75"},
		{name: "write", args: []string{"--sim", "write", "0x4d", "01:02"}, contains: "wrote 2 bytes"},
		{name: "probe by empty write", args: []string{"--sim", "write", "0x4d"}, contains: "wrote 0 bytes"},
		{name: "absent device", args: []string{"--sim", "write", "0x33", "01"}, code: 1, contains: "acknowledge failure"},
		{name: "unknown bus", args: []string{"--sim", "read", "--bus", "3", "0x50"}, code: 1, contains: "null handle"},
		{name: "eeprom read", args: []string{"--sim", "eeprom", "read", "0", "4"}, contains: "69 32 63 6d"},
		{name: "eeprom write", args: []string{"--sim", "eeprom", "write", "16", "aabbcc"}, contains: "wrote 3 bytes"},
		{name: "eeprom out of range", args: []string{"--sim", "eeprom", "read", "300"}, code: 2},
		{name: "eeprom model", args: []string{"--sim", "eeprom", "read", "--model", "93c46", "0"}, code: 2},
		{name: "temperature", args: []string{"--sim", "temp"}, contains: "25"},
		{name: "temperature absent", args: []string{"--sim", "temp", "--address", "0x49"}, code: 1, contains: "acknowledge failure"},
		{name: "verbose traces simulated bus", args: []string{"--verbose", "--sim", "write", "0x4d", "01"}, contains: "sim I2C1: data 0x01 read=false ack=true"},
		{name: "status", args: []string{"--sim", "status", "--scan"}, contains: "mode: simulated"},
		{name: "missing address", args: []string{"--sim", "write"}, code: 2, contains: "missing device address"},
		{name: "bad address", args: []string{"--sim", "read", "0x80"}, code: 2},
		{name: "bad data", args: []string{"--sim", "write", "0x4d", "zz"}, code: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCaptured(t, tt.args...)
			assert.Equal(t, tt.code, code, out)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestMissingConfig(t *testing.T) {
	code, _ := runCaptured(t, "--sim", "--config", "/nonexistent/i2cm.yaml", "scan")
	assert.Equal(t, 1, code)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		given    string
		expected uint8
		err      bool
	}{
		{given: "0x50", expected: 0x50},
		{given: "80", expected: 80},
		{given: "0o17", expected: 0o17},
		{given: "0x7f", expected: 0x7F},
		{given: "0x80", err: true},
		{given: "0x100", err: true},
		{given: "abc", err: true},
		{given: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			got, err := parseAddress(tt.given)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseData(t *testing.T) {
	tests := []struct {
		given    string
		expected []byte
		err      bool
	}{
		{given: "0102ff", expected: []byte{1, 2, 0xFF}},
		{given: "0x01 02", expected: []byte{1, 2}},
		{given: "de:ad:BE:ef", expected: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{given: "", expected: []byte{}},
		{given: "123", err: true},
		{given: "xy", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			got, err := parseData(tt.given)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScanTable(t *testing.T) {
	console.NoColor(true)
	table := scanTable([]uint8{0x08, 0x50, 0x77})
	assert.Contains(t, table, "00:                         08 -- ")
	assert.Contains(t, table, "50: 50 -- ")
	assert.Contains(t, table, "70: -- -- -- -- -- -- -- 77")
}
