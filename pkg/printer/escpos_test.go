package printer

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(d *Document) []string {
	// Drop the ESC @ prefix
	body := bytes.TrimPrefix(d.Bytes(), []byte{ESC, '@'})
	return strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
}

func TestDocument_Rows(t *testing.T) {
	d := NewDocument(20)
	d.KeyValue("Total", "266.00").
		ItemLine("2", "Masala Chai Premium Blend", "200.00").
		Separator('-')

	got := lines(d)
	require.Len(t, got, 3)
	assert.Equal(t, "Total         266.00", got[0])
	assert.Equal(t, "2 x Masala C. 200.00", got[1])
	assert.Equal(t, strings.Repeat("-", 20), got[2])
	for _, l := range got {
		assert.Equal(t, 20, utf8.RuneCountInString(l))
	}
}

func TestDocument_DefaultsAndReset(t *testing.T) {
	d := NewDocument(0)
	assert.Equal(t, Width58mm, d.Width())

	d.Text("hello").Cut()
	assert.True(t, bytes.HasSuffix(d.Bytes(), []byte{GS, 'V', 0x00}))

	d.Reset()
	assert.Equal(t, []byte{ESC, '@'}, d.Bytes())
}

func TestDocument_Wrap(t *testing.T) {
	d := NewDocument(10)
	d.Wrap("12 MG Road  Bengaluru ABCDEFGHIJKLM")

	assert.Equal(t, []string{"12 MG Road", "Bengaluru", "ABCDEFGHIJ", "KLM"}, lines(d))
}

func TestDocument_QRCode(t *testing.T) {
	d := NewDocument(32)
	d.QRCode("", 0)
	assert.Equal(t, []byte{ESC, '@'}, d.Bytes(), "empty data prints nothing")

	d.QRCode("INV-1", 40)
	out := d.Bytes()
	assert.True(t, bytes.Contains(out, []byte{GS, '(', 'k', 3, 0, 0x31, 0x43, 16}), "module size is capped")
	assert.True(t, bytes.Contains(out, append([]byte{GS, '(', 'k', 8, 0, 0x31, 0x50, 0x30}, "INV-1"...)))
	assert.True(t, bytes.HasSuffix(out, []byte{GS, '(', 'k', 3, 0, 0x31, 0x51, 0x30, LF}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "a", truncate("abc", 1))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab.", truncate("abcdef", 3))
	assert.Equal(t, "चा.", truncate("चाय पत्ती", 3))
}

func TestNewPrinterFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		usb      string
		address  string
		wantType string
		wantErr  bool
	}{
		{name: "none", typ: "none", wantType: "none"},
		{name: "empty", typ: "", wantType: "none"},
		{name: "usb", typ: "usb", usb: "/dev/usb/lp0", wantType: "usb"},
		{name: "usb without path", typ: "usb", wantErr: true},
		{name: "network", typ: "network", address: "127.0.0.1:9100", wantType: "network"},
		{name: "network without address", typ: "network", wantErr: true},
		{name: "unknown", typ: "bluetooth", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrinterFromConfig(tt.typ, tt.usb, tt.address)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, p.Type())
			assert.Equal(t, tt.wantType == "none", IsNull(p))
		})
	}
}

func TestUSBPrinter_WritesDeviceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	p := NewUSBPrinter(path)
	assert.True(t, p.IsConnected(context.Background()))
	require.NoError(t, p.Print(context.Background(), []byte("receipt")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "receipt", string(data))

	missing := NewUSBPrinter(filepath.Join(t.TempDir(), "missing"))
	assert.False(t, missing.IsConnected(context.Background()))
	assert.Error(t, missing.Print(context.Background(), []byte("x")))
}

func TestNetworkPrinter_SendsJob(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	p := NewNetworkPrinter(ln.Addr().String())
	require.NoError(t, p.Print(context.Background(), []byte("receipt")))
	assert.Equal(t, "receipt", string(<-received))
}
