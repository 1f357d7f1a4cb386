package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ybyygu/vasp-tools/internal/engine"
)

func startServer(t *testing.T, sess *engine.Session) (sockPath string, cancel func()) {
	t.Helper()
	sockPath = filepath.Join(t.TempDir(), "bbm.sock")
	srv := NewServer(sess, sockPath)
	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.ListenAndServe(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(sockPath); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	return sockPath, func() {
		cancelFn()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("server did not shut down in time")
		}
	}
}

func TestServerEchoRoundTrip(t *testing.T) {
	sess := engine.New("cat")
	if err := sess.Spawn(); err != nil {
		t.Fatal(err)
	}
	defer sess.Terminate()

	sockPath, cancel := startServer(t, sess)
	defer cancel()

	client, err := Dial(sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.WriteInput([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	out, err := client.ReadUntil("hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello\n" {
		t.Fatalf("got %q, want %q", out, "hello\n")
	}
}

func TestServerConcurrentClientsDoNotInterleave(t *testing.T) {
	sess := engine.New("cat")
	if err := sess.Spawn(); err != nil {
		t.Fatal(err)
	}
	defer sess.Terminate()

	sockPath, cancel := startServer(t, sess)
	defer cancel()

	const clients = 2
	const rounds = 5
	errCh := make(chan error, clients)
	for i := 0; i < clients; i++ {
		go func() {
			client, err := Dial(sockPath)
			if err != nil {
				errCh <- err
				return
			}
			defer client.Close()

			for j := 0; j < rounds; j++ {
				if err := client.WriteInput([]byte("a\n")); err != nil {
					errCh <- err
					return
				}
				out, err := client.ReadUntil("a")
				if err != nil {
					errCh <- err
					return
				}
				if out != "a\n" {
					errCh <- fmt.Errorf("round %d: got %q, want %q", j, out, "a\n")
					return
				}
			}
			errCh <- nil
		}()
	}
	for i := 0; i < clients; i++ {
		if err := <-errCh; err != nil {
			t.Fatal(err)
		}
	}
}

func TestServerRefusesExistingSocket(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "bbm.sock")
	if err := os.WriteFile(sockPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sess := engine.New("cat")
	srv := NewServer(sess, sockPath)
	if err := srv.ListenAndServe(context.Background()); err == nil {
		t.Fatal("want error when socket path already exists")
	}
}

func TestServerShutdownRemovesSocket(t *testing.T) {
	sess := engine.New("cat")
	if err := sess.Spawn(); err != nil {
		t.Fatal(err)
	}
	defer sess.Terminate()

	sockPath, cancel := startServer(t, sess)
	cancel()

	if _, err := os.Stat(sockPath); !os.IsNotExist(err) {
		t.Fatalf("expected socket to be removed, stat err = %v", err)
	}
}
