package main

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/dns/dnsmessage"
)

// TestE2E_DNSResolution starts the full application and resolves queries
// against it over UDP and TCP.
func TestE2E_DNSResolution(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	// Reserve a free port, then hand it to the application.
	probe, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	port := probe.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, probe.Close())

	cfg := testConfig(writeTestZone(t))
	cfg.Port = port

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Run(ctx)
	}()
	// Give the listeners a moment to come up.
	time.Sleep(100 * time.Millisecond)

	t.Run("A over UDP", func(t *testing.T) {
		resp := exchangeUDP(t, port, "www.test.local.", dnsmessage.TypeA)
		assert.True(t, resp.Header.Authoritative)
		assert.Equal(t, dnsmessage.RCodeSuccess, resp.Header.RCode)
		require.Len(t, resp.Answers, 1)
		a, ok := resp.Answers[0].Body.(*dnsmessage.AResource)
		require.True(t, ok)
		assert.Equal(t, [4]byte{127, 0, 0, 1}, a.A)
	})

	t.Run("NXDOMAIN over UDP", func(t *testing.T) {
		resp := exchangeUDP(t, port, "missing.test.local.", dnsmessage.TypeA)
		assert.Equal(t, dnsmessage.RCodeNameError, resp.Header.RCode)
		assert.True(t, resp.Header.Authoritative)
		assert.Empty(t, resp.Answers)
	})

	t.Run("AAAA over TCP", func(t *testing.T) {
		resp := exchangeTCP(t, port, "www.test.local.", dnsmessage.TypeAAAA)
		assert.Equal(t, dnsmessage.RCodeSuccess, resp.Header.RCode)
		require.Len(t, resp.Answers, 1)
		quad, ok := resp.Answers[0].Body.(*dnsmessage.AAAAResource)
		require.True(t, ok)
		assert.Equal(t, byte(1), quad.AAAA[15])
	})

	cancel()
	select {
	case err := <-serverErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func buildRefQuery(t *testing.T, name string, qtype dnsmessage.Type) []byte {
	t.Helper()
	msg := dnsmessage.Message{
		Header: dnsmessage.Header{ID: 0x1234},
		Questions: []dnsmessage.Question{
			{
				Name:  dnsmessage.MustNewName(name),
				Type:  qtype,
				Class: dnsmessage.ClassINET,
			},
		},
	}
	data, err := msg.Pack()
	require.NoError(t, err)
	return data
}

func exchangeUDP(t *testing.T, port int, name string, qtype dnsmessage.Type) dnsmessage.Message {
	t.Helper()
	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(buildRefQuery(t, name, qtype))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	var resp dnsmessage.Message
	require.NoError(t, resp.Unpack(buf[:n]))
	return resp
}

func exchangeTCP(t *testing.T, port int, name string, qtype dnsmessage.Type) dnsmessage.Message {
	t.Helper()
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	query := buildRefQuery(t, name, qtype)
	framed := append([]byte{byte(len(query) >> 8), byte(len(query))}, query...)
	_, err = conn.Write(framed)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	prefix := make([]byte, 2)
	_, err = io.ReadFull(conn, prefix)
	require.NoError(t, err)
	body := make([]byte, int(prefix[0])<<8|int(prefix[1]))
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)

	var resp dnsmessage.Message
	require.NoError(t, resp.Unpack(body))
	return resp
}
