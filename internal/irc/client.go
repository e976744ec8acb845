package irc

import (
	"crypto/tls"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/dalnet/usermoded/internal/config"
	"github.com/dalnet/usermoded/internal/metrics"
	"github.com/dalnet/usermoded/internal/usermode"
	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	"github.com/sirupsen/logrus"
)

// Version information, answered to CTCP VERSION
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// identity is a connection as it was known under an earlier nick
type identity struct {
	nick, user, host string
}

func (i identity) Nickname() string       { return i.nick }
func (i identity) Username() string       { return i.user }
func (i identity) ServerHostname() string { return i.host }

// Client feeds the notifications of one IRC network into a mode store
type Client struct {
	conn    *ircevent.Connection
	network config.Network
	store   *usermode.Store
	log     *logrus.Entry

	mu     sync.RWMutex
	ready  bool
	closed bool
	// every connection mask the store has been written under this session
	masks map[string]struct{}
	// mode letters that take a nick argument
	memberModes map[rune]struct{}

	currentNick func() string
	isupport    func() map[string]string
}

// NewClient creates a new IRC client for network
func NewClient(network config.Network, store *usermode.Store, logger *logrus.Logger) *Client {
	c := &Client{
		network:     network,
		store:       store,
		log:         logger.WithField("network", network.Name),
		masks:       make(map[string]struct{}),
		memberModes: store.Prefixes().Modes(),
	}

	// Create IRC connection
	conn := &ircevent.Connection{
		Server:       fmt.Sprintf("%s:%d", network.Server, network.Port),
		Nick:         network.Nick,
		User:         network.Username,
		RealName:     network.IRCName,
		Password:     network.ServerPass,
		QuitMessage:  "Shutting down",
		Version:      fmt.Sprintf("usermoded %s (%s, built %s)", Version, GitCommit, BuildDate),
		EnableCTCP:   true,
		Debug:        logger.IsLevelEnabled(logrus.TraceLevel),
		Log:          log.New(c.log.WriterLevel(logrus.TraceLevel), "", 0),
		UseTLS:       network.TLS,
		TLSConfig:    &tls.Config{ServerName: network.Server, InsecureSkipVerify: network.TLSInsecure},
		SASLLogin:    network.SASLLogin,
		SASLPassword: network.SASLPass,
	}
	if network.SASLLogin != "" {
		conn.UseSASL = true
	}
	c.conn = conn
	c.currentNick = conn.CurrentNick
	c.isupport = conn.ISupport

	// Register handlers
	c.registerHandlers()

	return c
}

func (c *Client) registerHandlers() {
	// Connected (end of MOTD)
	c.conn.AddCallback("376", c.onConnect)
	c.conn.AddCallback("422", c.onConnect) // MOTD missing is also "connected"
	c.conn.AddDisconnectCallback(c.onDisconnect)

	// Mode tracking, every result is counted in usermoded_events_total
	c.conn.AddCallback("MODE", c.onMode)
	c.conn.AddCallback("PART", c.onPart)
	c.conn.AddCallback("QUIT", c.onQuit)
	c.conn.AddCallback("NICK", c.onNick)
	c.conn.AddCallback("353", c.onNames) // RPL_NAMREPLY
}

// Name returns the configured network name
func (c *Client) Name() string {
	return c.network.Name
}

// Nickname returns the nick currently in use on the connection
func (c *Client) Nickname() string {
	return c.currentNick()
}

// Username returns the username the connection registered with
func (c *Client) Username() string {
	return c.network.Username
}

// ServerHostname returns the hostname of the server the connection targets
func (c *Client) ServerHostname() string {
	return c.network.Server
}

// Ready reports whether registration with the server has completed
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready && !c.closed
}

// Connect initiates the IRC connection
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Loop runs the IRC event loop (blocking)
func (c *Client) Loop() {
	c.conn.Loop()
}

// Quit disconnects from IRC
func (c *Client) Quit(message string) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.conn.QuitMessage = message
	c.conn.Quit()
}

func (c *Client) onConnect(e ircmsg.Message) {
	c.log.Info("Connected to IRC server")

	for _, channel := range c.network.Channels {
		if err := c.conn.Join(channel); err != nil {
			c.log.WithError(err).WithField("channel", channel).Warn("Could not join channel")
		}
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

func (c *Client) onDisconnect(e ircmsg.Message) {
	c.mu.Lock()
	c.ready = false
	masks := c.masks
	c.masks = make(map[string]struct{})
	c.mu.Unlock()
	masks[usermode.Mask(c)] = struct{}{}

	// modes learned on a dead session are stale once we reconnect
	for mask := range masks {
		c.store.ForgetMask(mask)
	}
	c.log.WithField("masks", len(masks)).Info("Disconnected, dropped mode data")
}

// track records the mask the next store write lands under
func (c *Client) track() {
	mask := usermode.Mask(c)
	c.mu.Lock()
	c.masks[mask] = struct{}{}
	c.mu.Unlock()
}

// modeClasses returns the server's CHANMODES classes, or the RFC defaults
// before registration
func (c *Client) modeClasses() chanModes {
	if value := c.isupport()["CHANMODES"]; value != "" {
		return parseChanModes(value)
	}
	return defaultChanModes()
}

func (c *Client) onMode(e ircmsg.Message) {
	// MODE <target> <modestring> [args...]
	if len(e.Params) < 2 || !isChannel(e.Params[0]) {
		return
	}

	changes := decodeModeChanges(e.Params[1], e.Params[2:], c.memberModes, c.modeClasses())

	c.track()
	for _, ch := range changes {
		res := c.store.ApplyModeChange(c, e.Params[0], ch.nick, ch.change)
		c.record("mode", res)
	}
}

func (c *Client) onPart(e ircmsg.Message) {
	// PART <channel>{,<channel>} [:reason]
	if len(e.Params) < 1 {
		return
	}
	c.track()
	res := c.store.RemoveUser(c, strings.Split(e.Params[0], ","), e.Nick())
	c.record("part", res)
}

func (c *Client) onQuit(e ircmsg.Message) {
	c.track()
	res := c.store.RemoveUserEverywhere(c, e.Nick())
	c.record("quit", res)
}

func (c *Client) onNick(e ircmsg.Message) {
	// NICK <newnick>
	if len(e.Params) < 1 {
		return
	}
	oldNick, newNick := e.Nick(), e.Params[0]

	// ircevent has already switched CurrentNick when the rename is ours
	if newNick == c.Nickname() && oldNick != newNick {
		from := identity{nick: oldNick, user: c.Username(), host: c.ServerHostname()}
		res := c.store.MoveConnection(from, c)
		c.record("self_nick", res)
	}

	c.track()
	res := c.store.RenameUser(c, oldNick, newNick)
	c.record("nick", res)
}

func (c *Client) onNames(e ircmsg.Message) {
	// 353 <me> <symbol> <channel> :[prefix]<nick>{ [prefix]<nick>}
	// older servers omit the symbol
	var channel, names string
	switch {
	case len(e.Params) >= 4:
		channel = e.Params[1] + e.Params[2]
		names = e.Params[3]
	case len(e.Params) == 3:
		channel = e.Params[1]
		names = e.Params[2]
	default:
		return
	}
	c.track()
	res := c.store.LoadNames(c, channel, strings.Fields(names))
	c.record("names", res)
}

func (c *Client) record(event string, res usermode.Result) {
	metrics.EventsTotal.WithLabelValues(c.network.Name, event, res.String()).Inc()
	if res != usermode.Applied {
		c.log.WithFields(logrus.Fields{
			"event":  event,
			"result": res.String(),
		}).Debug("Notification skipped")
	}
}

func isChannel(target string) bool {
	return target != "" && strings.ContainsRune("#&+!", rune(target[0]))
}
