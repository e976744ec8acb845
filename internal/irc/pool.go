package irc

import (
	"fmt"
	"sync"

	"github.com/dalnet/usermoded/internal/config"
	"github.com/dalnet/usermoded/internal/usermode"
	"github.com/sirupsen/logrus"
)

// Pool owns one Client per configured network, all sharing a store
type Pool struct {
	clients map[string]*Client
	order   []string
	log     *logrus.Logger
	wg      sync.WaitGroup
}

// NewPool creates a client for every network
func NewPool(networks []config.Network, store *usermode.Store, logger *logrus.Logger) *Pool {
	p := &Pool{
		clients: make(map[string]*Client, len(networks)),
		log:     logger,
	}
	for _, n := range networks {
		p.clients[n.Name] = NewClient(n, store, logger)
		p.order = append(p.order, n.Name)
	}
	return p
}

// Network returns the connection for a network name
func (p *Pool) Network(name string) (usermode.Connection, bool) {
	c, ok := p.clients[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// Networks returns the configured network names
func (p *Pool) Networks() []string {
	names := make([]string, len(p.order))
	copy(names, p.order)
	return names
}

// Run connects every client and runs its event loop in the background
func (p *Pool) Run() error {
	for _, name := range p.order {
		c := p.clients[name]
		p.log.WithField("network", name).Infof("Connecting to %s...", c.conn.Server)
		if err := c.Connect(); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", name, err)
		}

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			c.Loop()
		}()
	}
	return nil
}

// Quit disconnects every client
func (p *Pool) Quit(message string) {
	for _, c := range p.clients {
		c.Quit(message)
	}
}

// Wait blocks until every event loop has returned
func (p *Pool) Wait() {
	p.wg.Wait()
}
