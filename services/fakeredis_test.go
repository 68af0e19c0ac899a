package services

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// fakeRedis speaks just enough RESP for the rate limiter: MULTI/EXEC, INCR,
// TTL and EXPIRE. Its clock is manual and EXPIRE can be made to fail.
type fakeRedis struct {
	mu          sync.Mutex
	now         time.Time
	values      map[string]int64
	expires     map[string]time.Time
	failExpires int
	expireCalls int
}

func newFakeRedis(t *testing.T) (*fakeRedis, *redis.Client) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeRedis{
		now:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		values:  make(map[string]int64),
		expires: make(map[string]time.Time),
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()

	client := redis.NewClient(&redis.Options{Addr: ln.Addr().String(), MaxRetries: -1})
	t.Cleanup(func() {
		client.Close()
		ln.Close()
	})
	return f, client
}

func (f *fakeRedis) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fakeRedis) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	var queued [][]string
	inTx := false
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		var reply string
		switch cmd := strings.ToUpper(args[0]); {
		case cmd == "MULTI":
			inTx, queued = true, nil
			reply = "+OK\r\n"
		case cmd == "EXEC":
			reply = fmt.Sprintf("*%d\r\n", len(queued))
			for _, q := range queued {
				reply += f.exec(q)
			}
			inTx, queued = false, nil
		case inTx:
			queued = append(queued, args)
			reply = "+QUEUED\r\n"
		default:
			reply = f.exec(args)
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func (f *fakeRedis) exec(args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := ""
	if len(args) > 1 {
		key = args[1]
		if deadline, ok := f.expires[key]; ok && !f.now.Before(deadline) {
			delete(f.values, key)
			delete(f.expires, key)
		}
	}

	switch strings.ToUpper(args[0]) {
	case "INCR":
		f.values[key]++
		return fmt.Sprintf(":%d\r\n", f.values[key])
	case "TTL":
		if _, ok := f.values[key]; !ok {
			return ":-2\r\n"
		}
		deadline, ok := f.expires[key]
		if !ok {
			return ":-1\r\n"
		}
		return fmt.Sprintf(":%d\r\n", int64(deadline.Sub(f.now).Seconds()))
	case "EXPIRE":
		f.expireCalls++
		if f.failExpires > 0 {
			f.failExpires--
			return "-ERR injected failure\r\n"
		}
		if _, ok := f.values[key]; !ok {
			return ":0\r\n"
		}
		secs, _ := strconv.Atoi(args[2])
		f.expires[key] = f.now.Add(time.Duration(secs) * time.Second)
		return ":1\r\n"
	}
	return "-ERR unknown command '" + args[0] + "'\r\n"
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected line %q", line)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("bad array header %q", line)
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		header, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimRight(header, "\r\n")[1:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}
