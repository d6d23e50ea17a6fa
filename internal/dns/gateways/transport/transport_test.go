package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/domain"
	"github.com/leafdns/leafdns/internal/dns/gateways/wire"
	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

// echoResponder answers every query with a single fixed A record.
type echoResponder struct{}

func (echoResponder) HandleRequest(_ context.Context, msg domain.Message, _ net.Addr) (domain.Message, bool) {
	if msg.Header.Response {
		return domain.Message{}, false
	}
	resp := msg.Reply()
	resp.Header.Authoritative = true
	resp.Answers = []domain.ResourceRecord{
		{
			Name:  msg.Questions[0].Name,
			Type:  domain.RRTypeA,
			Class: domain.RRClassIN,
			TTL:   60,
			Data:  []byte{192, 0, 2, 1},
		},
	}
	return resp, true
}

var _ resolver.Responder = echoResponder{}

func encodeQuery(t *testing.T, id uint16, name string) []byte {
	t.Helper()
	codec := wire.NewCodec(log.NewNoopLogger())
	data, err := codec.Encode(domain.Message{
		Header: domain.Header{ID: id, OpCode: domain.OpCodeQuery},
		Questions: []domain.Question{
			{Name: name, Type: domain.RRTypeA, Class: domain.RRClassIN},
		},
	}, 0)
	require.NoError(t, err)
	return data
}

func decodeResponse(t *testing.T, data []byte) domain.Message {
	t.Helper()
	codec := wire.NewCodec(log.NewNoopLogger())
	msg, err := codec.Decode(data)
	require.NoError(t, err)
	return msg
}

func startUDP(t *testing.T) *UDPTransport {
	t.Helper()
	codec := wire.NewCodec(log.NewNoopLogger())
	tr := NewUDPTransport("127.0.0.1:0", codec, log.NewNoopLogger(), 0)
	require.NoError(t, tr.Start(context.Background(), echoResponder{}))
	t.Cleanup(func() { _ = tr.Stop() })
	return tr
}

func startTCP(t *testing.T, idle time.Duration) *TCPTransport {
	t.Helper()
	codec := wire.NewCodec(log.NewNoopLogger())
	tr := NewTCPTransport("127.0.0.1:0", codec, log.NewNoopLogger(), nil, idle)
	require.NoError(t, tr.Start(context.Background(), echoResponder{}))
	t.Cleanup(func() { _ = tr.Stop() })
	return tr
}

func TestUDPTransport_ServesQuery(t *testing.T) {
	tr := startUDP(t)

	conn, err := net.Dial("udp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(encodeQuery(t, 0x1111, "www.example.com"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	resp := decodeResponse(t, buf[:n])
	assert.Equal(t, uint16(0x1111), resp.Header.ID)
	assert.True(t, resp.Header.Response)
	assert.True(t, resp.Header.Authoritative)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, []byte{192, 0, 2, 1}, resp.Answers[0].Data)
}

func TestUDPTransport_AnswersFormErrOnMalformedQuery(t *testing.T) {
	tr := startUDP(t)

	conn, err := net.Dial("udp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	// Valid header, then a forward compression pointer the decoder rejects.
	garbage := make([]byte, wire.HeaderSize, wire.HeaderSize+2)
	binary.BigEndian.PutUint16(garbage[0:2], 0x2222)
	binary.BigEndian.PutUint16(garbage[4:6], 1)
	garbage = append(garbage, 0xC0, 0x40)

	_, err = conn.Write(garbage)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	resp := decodeResponse(t, buf[:n])
	assert.Equal(t, uint16(0x2222), resp.Header.ID)
	assert.True(t, resp.Header.Response)
	assert.Equal(t, domain.RCodeFormatError, resp.Header.RCode)
}

func TestUDPTransport_DropsSubHeaderDatagrams(t *testing.T) {
	tr := startUDP(t)

	conn, err := net.Dial("udp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	buf := make([]byte, 512)
	_, err = conn.Read(buf)
	require.Error(t, err, "no reply is sent when the transaction ID cannot be read")
}

func TestUDPTransport_StartTwiceFails(t *testing.T) {
	tr := startUDP(t)
	assert.Error(t, tr.Start(context.Background(), echoResponder{}))
}

func TestUDPTransport_StopIsIdempotent(t *testing.T) {
	tr := startUDP(t)
	assert.NoError(t, tr.Stop())
	assert.NoError(t, tr.Stop())
}

func readFramed(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var lenBuf [2]byte
	_, err := io.ReadFull(conn, lenBuf[:])
	require.NoError(t, err)
	body := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)
	return body
}

func writeFramed(t *testing.T, conn net.Conn, data []byte) {
	t.Helper()
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	_, err := conn.Write(append(lenBuf[:], data...))
	require.NoError(t, err)
}

func TestTCPTransport_ServesQuery(t *testing.T) {
	tr := startTCP(t, 0)

	conn, err := net.Dial("tcp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	writeFramed(t, conn, encodeQuery(t, 0x3333, "www.example.com"))

	resp := decodeResponse(t, readFramed(t, conn))
	assert.Equal(t, uint16(0x3333), resp.Header.ID)
	assert.True(t, resp.Header.Response)
	require.Len(t, resp.Answers, 1)
}

func TestTCPTransport_ServesPipelinedQueries(t *testing.T) {
	tr := startTCP(t, 0)

	conn, err := net.Dial("tcp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	writeFramed(t, conn, encodeQuery(t, 1, "a.example.com"))
	writeFramed(t, conn, encodeQuery(t, 2, "b.example.com"))

	first := decodeResponse(t, readFramed(t, conn))
	second := decodeResponse(t, readFramed(t, conn))
	assert.Equal(t, uint16(1), first.Header.ID)
	assert.Equal(t, uint16(2), second.Header.ID)
}

func TestTCPTransport_ClosesOnMalformedMessage(t *testing.T) {
	tr := startTCP(t, 0)

	conn, err := net.Dial("tcp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	writeFramed(t, conn, []byte{0x01, 0x02, 0x03})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 16)
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTCPTransport_ClosesIdleConnections(t *testing.T) {
	tr := startTCP(t, 100*time.Millisecond)

	conn, err := net.Dial("tcp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 16)
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF, "server closes the connection once the idle timeout passes")
}

func TestTCPTransport_LargeResponseNotTruncated(t *testing.T) {
	codec := wire.NewCodec(log.NewNoopLogger())
	// 100 answers overflow a UDP payload but must arrive whole over TCP.
	big := bigResponder{count: 100}
	tr := NewTCPTransport("127.0.0.1:0", codec, log.NewNoopLogger(), nil, 0)
	require.NoError(t, tr.Start(context.Background(), big))
	t.Cleanup(func() { _ = tr.Stop() })

	conn, err := net.Dial("tcp", tr.Address())
	require.NoError(t, err)
	defer conn.Close()

	writeFramed(t, conn, encodeQuery(t, 7, "big.example.com"))

	resp := decodeResponse(t, readFramed(t, conn))
	assert.False(t, resp.Header.Truncated)
	assert.Len(t, resp.Answers, 100)
}

// bigResponder answers with count identical A records.
type bigResponder struct {
	count int
}

func (b bigResponder) HandleRequest(_ context.Context, msg domain.Message, _ net.Addr) (domain.Message, bool) {
	resp := msg.Reply()
	for i := 0; i < b.count; i++ {
		resp.Answers = append(resp.Answers, domain.ResourceRecord{
			Name:  msg.Questions[0].Name,
			Type:  domain.RRTypeA,
			Class: domain.RRClassIN,
			TTL:   60,
			Data:  []byte{192, 0, 2, byte(i)},
		})
	}
	return resp, true
}

func TestFormatErrorReply(t *testing.T) {
	data := make([]byte, wire.HeaderSize)
	binary.BigEndian.PutUint16(data[0:2], 0x7777)
	binary.BigEndian.PutUint16(data[2:4], 0x0100) // RD set

	reply, ok := formatErrorReply(data)
	require.True(t, ok)
	assert.Equal(t, uint16(0x7777), reply.Header.ID)
	assert.True(t, reply.Header.Response)
	assert.True(t, reply.Header.RecursionDesired)
	assert.Equal(t, domain.RCodeFormatError, reply.Header.RCode)

	_, ok = formatErrorReply([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	codec := wire.NewCodec(log.NewNoopLogger())
	logger := log.NewNoopLogger()

	udp, err := New(TypeUDP, ":5353", codec, logger, Options{})
	require.NoError(t, err)
	assert.IsType(t, &UDPTransport{}, udp)

	tcp, err := New(TypeTCP, ":5353", codec, logger, Options{})
	require.NoError(t, err)
	assert.IsType(t, &TCPTransport{}, tcp)

	_, err = New(Type("doq"), ":5353", codec, logger, Options{})
	assert.Error(t, err)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(TypeUDP))
	assert.True(t, IsSupported(TypeTCP))
	assert.False(t, IsSupported(Type("doh")))
}
