package server

import (
	"fmt"
	"io"
	"strings"
)

// writeSSE frames one server-sent event. Multi-line payloads become multiple
// data: lines inside the same event so embedded newlines survive framing.
func writeSSE(w io.Writer, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data:%s\n", line)
	}
	fmt.Fprint(w, "\n")
}
