package smtp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-notification-api/internal/config"
	"github.com/go-notification-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_Headers(t *testing.T) {
	msg, err := buildMessage("support@fishstat.ru", "ivan@example.com", "Аукцион на «Лосось» завершен.", "<p>Привет</p>")
	require.NoError(t, err)
	s := string(msg)

	assert.Contains(t, s, "From: support@fishstat.ru\r\n")
	assert.Contains(t, s, "To: ivan@example.com\r\n")
	assert.Contains(t, s, "Subject: =?UTF-8?b?")
	assert.Contains(t, s, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.Contains(t, s, "Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	assert.NotContains(t, s, "Привет")
}

func TestRenderer_Embedded(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)
	assert.Equal(t, []string{"join.html", "thanx.html", "winner.html"}, r.Names())

	html, err := r.Render("winner.html", map[string]string{
		"toName":      "Ivan",
		"company":     "Fishstat",
		"product":     "Salmon <20t>",
		"auctionHref": "https://auction.example/7",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Ivan")
	assert.Contains(t, html, "Salmon &lt;20t&gt;")
	assert.Contains(t, html, `href="https://auction.example/7"`)
	assert.NotContains(t, html, "<img")
}

func TestRenderer_MissingTemplate(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)
	_, err = r.Render("nope.html", nil)
	assert.True(t, errors.Is(err, domain.ErrTemplate))
}

func TestRenderer_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "join.html"), []byte("<b>{{.toName}}</b>"), 0o644))

	r, err := NewRenderer(dir)
	require.NoError(t, err)
	html, err := r.Render("join.html", map[string]string{"toName": "Olga"})
	require.NoError(t, err)
	assert.Equal(t, "<b>Olga</b>", html)
}

func TestRenderer_EmptyDirectory(t *testing.T) {
	_, err := NewRenderer(t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrTemplate))
}

// fakeSMTP accepts one session and records the DATA payload.
func fakeSMTP(t *testing.T) (addr string, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
		reply := func(s string) { rw.WriteString(s + "\r\n"); rw.Flush() }

		reply("220 fake ESMTP")
		var body strings.Builder
		inData := false
		for {
			line, err := rw.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if inData {
				if line == "." {
					inData = false
					out <- body.String()
					reply("250 queued")
					continue
				}
				body.WriteString(line + "\n")
				continue
			}
			switch cmd := strings.ToUpper(line); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case strings.HasPrefix(cmd, "DATA"):
				inData = true
				reply("354 go ahead")
			case strings.HasPrefix(cmd, "QUIT"):
				reply("221 bye")
				return
			default:
				reply("250 ok")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestMailer_SendEmail(t *testing.T) {
	addr, data := fakeSMTP(t)
	host, port, _ := net.SplitHostPort(addr)
	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, SMTPFrom: "support@fishstat.ru", SMTPTimeout: 2 * time.Second})

	err := m.SendEmail(context.Background(), "ivan@example.com", "Lot 7", "<p>hello</p>")
	require.NoError(t, err)

	select {
	case got := <-data:
		assert.Contains(t, got, "To: ivan@example.com")
		assert.Contains(t, got, "<p>hello</p>")
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestMailer_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	host, port, _ := net.SplitHostPort(addr)

	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, SMTPTimeout: time.Second})
	err = m.SendEmail(context.Background(), "ivan@example.com", "s", "b")
	assert.ErrorContains(t, err, "dial smtp")
}

func TestNewMailer_NonPositiveTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		m := NewMailer(&config.Config{SMTPTimeout: timeout})
		assert.Equal(t, defaultTimeout, m.timeout)
	}
	assert.Equal(t, 3*time.Second, NewMailer(&config.Config{SMTPTimeout: 3 * time.Second}).timeout)
}

func TestMailer_SilentServerHitsDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	held := make(chan net.Conn, 4)
	t.Cleanup(func() {
		ln.Close()
		for {
			select {
			case conn := <-held:
				conn.Close()
			default:
				return
			}
		}
	})
	// Accept and hold one connection without ever sending a greeting.
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			held <- conn
		}
	}()
	host, port, _ := net.SplitHostPort(ln.Addr().String())

	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, SMTPTimeout: 200 * time.Millisecond})
	start := time.Now()
	err = m.SendEmail(context.Background(), "ivan@example.com", "s", "b")

	require.Error(t, err)
	assert.ErrorContains(t, err, "smtp handshake")
	assert.Less(t, time.Since(start), 2*time.Second)
}
