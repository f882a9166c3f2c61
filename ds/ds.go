// Copyright 2022-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ds

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brutella/dnssd"
)

const (
	// Service is the DNS-SD service type advertised by default.
	Service = "_ssh._tcp"
	// Domain is the default DNS-SD domain.
	Domain = "local"

	timeFormat = "15:04:05.000"
	dsUpdate   = 60 * time.Second // meta-data refresh
	dsSettle   = 1 * time.Second
)

var v = func(string, ...interface{}) {}

// Verbose sets the debug print function.
func Verbose(f func(string, ...interface{})) {
	v = f
}

// ParseKv parses a DNS-SD key value string, e.g. "a=b,c", into a map.
// Keys without a value are "true".
func ParseKv(arg string) map[string]string {
	txt := make(map[string]string)
	if len(arg) == 0 {
		return txt
	}
	for _, pair := range strings.Split(arg, ",") {
		if pair == "" {
			continue
		}
		k, val, ok := strings.Cut(pair, "=")
		if !ok {
			val = "true"
		}
		txt[k] = val
	}
	return txt
}

// DefaultInstance is the host name with -sshd added.
func DefaultInstance() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "sshd"
	}
	return hostname + "-sshd"
}

// DefaultTxt fills in arch, os and cores if they are not set.
func DefaultTxt(txt map[string]string) {
	if len(txt["arch"]) == 0 {
		txt["arch"] = runtime.GOARCH
	}
	if len(txt["os"]) == 0 {
		txt["os"] = runtime.GOOS
	}
	if len(txt["cores"]) == 0 {
		txt["cores"] = strconv.Itoa(runtime.NumCPU())
	}
}

// Advertiser keeps a service registered and its TXT record current.
type Advertiser struct {
	Instance  string
	Domain    string
	Service   string
	Interface string
	Port      int

	mu      sync.Mutex
	txt     map[string]string
	tenants int
	resp    dnssd.Responder
	handle  dnssd.ServiceHandle
	cancel  context.CancelFunc
}

// New returns an Advertiser for port with the given TXT entries.
// Empty names get the defaults.
func New(instance, domain, service, iface string, port int, txt map[string]string) *Advertiser {
	if instance == "" {
		instance = DefaultInstance()
	}
	if domain == "" {
		domain = Domain
	}
	if service == "" {
		service = Service
	}
	t := make(map[string]string, len(txt))
	for k, val := range txt {
		t[k] = val
	}
	DefaultTxt(t)
	return &Advertiser{
		Instance:  instance,
		Domain:    domain,
		Service:   service,
		Interface: iface,
		Port:      port,
		txt:       t,
	}
}

// Text returns a copy of the current TXT record.
func (a *Advertiser) Text() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := make(map[string]string, len(a.txt))
	for k, val := range a.txt {
		t[k] = val
	}
	return t
}

// refresh updates the TXT record and, once registered, the
// advertisement. Called with a.mu held.
func (a *Advertiser) refresh() {
	a.txt["tenants"] = strconv.Itoa(a.tenants)
	UpdateSysInfo(a.txt)
	if a.handle != nil {
		a.handle.UpdateText(a.txt, a.resp)
	}
}

// Tenant changes the number of sessions by delta.
func (a *Advertiser) Tenant(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tenants += delta
	v("ds: tenant delta %d, now %d", delta, a.tenants)
	a.refresh()
}

// Tenants returns the number of sessions.
func (a *Advertiser) Tenants() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tenants
}

// Start registers the service and responds to queries until ctx is
// done or Stop is called.
func (a *Advertiser) Start(ctx context.Context) error {
	v("ds: advertising %s.%s.%s.", strings.Trim(a.Instance, "."), strings.Trim(a.Service, "."), strings.Trim(a.Domain, "."))

	resp, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("ds: new responder: %w", err)
	}
	var ifaces []string
	if len(a.Interface) > 0 {
		ifaces = append(ifaces, a.Interface)
	}

	a.mu.Lock()
	a.refresh()
	cfg := dnssd.Config{
		Name:   a.Instance,
		Type:   a.Service,
		Domain: a.Domain,
		Port:   a.Port,
		Ifaces: ifaces,
		Text:   a.txt,
	}
	a.mu.Unlock()

	srv, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("ds: new service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.resp, a.cancel = resp, cancel
	a.mu.Unlock()

	go func() {
		if err := resp.Respond(ctx); err != nil && ctx.Err() == nil {
			v("ds: responder: %v", err)
			return
		}
		v("ds: responder exited")
	}()

	go func() {
		select {
		case <-time.After(dsSettle):
		case <-ctx.Done():
			return
		}
		handle, err := resp.Add(srv)
		if err != nil {
			v("ds: add %s: %v", a.Instance, err)
			return
		}
		v("ds: %s service %s registered and active", time.Now().Format(timeFormat), handle.Service().ServiceInstanceName())
		a.mu.Lock()
		a.handle = handle
		a.refresh()
		a.mu.Unlock()

		t := time.NewTicker(dsUpdate)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				a.mu.Lock()
				a.refresh()
				a.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	v("ds: stopping")
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}
