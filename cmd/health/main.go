// Command health probes a running helpdesk server. Intended for container
// health checks where a shell plus curl is not available.
//
// Exit status is 0 when the target endpoint reports healthy, 1 otherwise.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "server base URL")
	ready := flag.Bool("ready", false, "probe /readyz instead of /healthz")
	timeout := flag.Duration("timeout", 3*time.Second, "request timeout")
	flag.Parse()

	path := "/healthz"
	if *ready {
		path = "/readyz"
	}

	status, body, err := fasthttp.GetTimeout(nil, *addr+path, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if status != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "unhealthy: status %d: %s\n", status, body)
		os.Exit(1)
	}
	fmt.Println(string(body))
}
