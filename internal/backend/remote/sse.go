package remote

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

type sseEvent struct {
	Name string
	Data []byte
}

// readSSEEvents parses a text/event-stream body, sending one sseEvent per
// blank-line-terminated block. It closes out when the body ends and reports
// the terminating error (io.EOF on a clean end) on errs. Sends are abandoned
// once done is closed.
func readSSEEvents(done <-chan struct{}, reader io.Reader, out chan<- sseEvent, errs chan<- error) {
	defer close(out)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	name := ""
	var data bytes.Buffer
	flush := func() bool {
		if name == "" && data.Len() == 0 {
			return true
		}
		event := sseEvent{Name: name, Data: append([]byte(nil), data.Bytes()...)}
		name = ""
		data.Reset()
		select {
		case out <- event:
			return true
		case <-done:
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if !flush() {
				return
			}
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			segment := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(segment)
		}
	}
	if !flush() {
		return
	}
	if err := scanner.Err(); err != nil {
		errs <- err
		return
	}
	errs <- io.EOF
}
