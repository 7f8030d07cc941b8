// Package main generates a self-signed server certificate and key for
// serving the API over HTTPS locally, writing them under the "certs"
// directory by default.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/hacklearn/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", strings.Join(certgen.DefaultHosts, ","), "comma-separated host names and IPs")
	flag.Parse()

	msg, err := run(*dir, splitHosts(*hosts))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(msg)
}

// run writes server.crt and server.key into dir unless both exist.
func run(dir string, hosts []string) (string, error) {
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	written, err := certgen.EnsureSelfSigned(certPath, keyPath, hosts)
	if err != nil {
		return "", err
	}
	if !written {
		return "certificates already present in " + dir, nil
	}
	return fmt.Sprintf("certificates generated into %s (use -tls-cert %s -tls-key %s)", dir, certPath, keyPath), nil
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
