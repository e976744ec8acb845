// Package usermode tracks which channel membership modes each user holds,
// per connection, from the stream of MODE, PART, QUIT, NICK and NAMES
// notifications.
package usermode

import (
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

type modeSet map[rune]struct{}

// connection mask -> channel -> nick -> active modes
type channelModes map[string]map[string]modeSet

// Options configures a Store
type Options struct {
	// Prefixes replaces the default prefix table when non-nil
	Prefixes PrefixTable

	// Logger receives diagnostics for skipped notifications.
	// If nil, nothing is logged.
	Logger logrus.FieldLogger
}

// Store holds the active modes for every connection, channel and nick
type Store struct {
	mu       sync.RWMutex
	modes    map[string]channelModes
	prefixes PrefixTable
	log      logrus.FieldLogger
}

// New creates an empty Store
func New(opts *Options) *Store {
	s := &Store{
		modes:    make(map[string]channelModes),
		prefixes: DefaultPrefixes(),
	}
	if opts != nil {
		if opts.Prefixes != nil {
			s.prefixes = opts.Prefixes.clone()
		}
		s.log = opts.Logger
	}
	if s.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		s.log = discard
	}
	return s
}

// Prefixes returns a copy of the prefix table in use
func (s *Store) Prefixes() PrefixTable {
	return s.prefixes.clone()
}

// ApplyModeChange applies a mode change like "+ov" or "-o" for nick in channel
func (s *Store) ApplyModeChange(conn Connection, channel, nick, change string) Result {
	mask := Mask(conn)
	log := s.log.WithFields(logrus.Fields{
		"connectionMask": mask,
		"channel":        channel,
		"nick":           nick,
		"mode":           change,
	})

	if channel == "" || nick == "" || change == "" {
		log.Debug("Missing channel, user or mode, skipping")
		return SkippedMissingFields
	}

	mc := ParseModeChange(change)
	if mc.Op != '+' && mc.Op != '-' {
		log.WithField("operation", string(mc.Op)).Warn("Encountered unknown operation")
		return SkippedUnknownOperation
	}
	if len(mc.Modes) == 0 {
		log.Debug("No mode letters, skipping")
		return SkippedNoModes
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mc.Op == '+' {
		set := s.getOrCreate(mask, channel, nick)
		for _, m := range mc.Modes {
			set[m] = struct{}{}
		}
	} else {
		set := s.modes[mask][channel][nick]
		for _, m := range mc.Modes {
			delete(set, m)
		}
		s.prune(mask, channel, nick)
	}

	log.Debug("Changed user mode")
	return Applied
}

// RemoveUser drops the modes of nick in each of the given channels
func (s *Store) RemoveUser(conn Connection, channels []string, nick string) Result {
	mask := Mask(conn)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(mask, channels, nick)
}

// RemoveUserEverywhere drops the modes of nick in every channel known for conn
func (s *Store) RemoveUserEverywhere(conn Connection, nick string) Result {
	mask := Mask(conn)

	s.mu.Lock()
	defer s.mu.Unlock()

	chans, ok := s.modes[mask]
	if !ok {
		s.log.WithFields(logrus.Fields{
			"connectionMask": mask,
			"nick":           nick,
		}).Debug("No mode data for connection")
		return SkippedNoData
	}

	// removal prunes the map being walked, so snapshot the keys first
	channels := make([]string, 0, len(chans))
	for channel := range chans {
		channels = append(channels, channel)
	}
	return s.removeLocked(mask, channels, nick)
}

func (s *Store) removeLocked(mask string, channels []string, nick string) Result {
	if nick == "" || len(channels) == 0 {
		return SkippedMissingFields
	}
	for _, channel := range channels {
		s.log.WithFields(logrus.Fields{
			"connectionMask": mask,
			"channel":        channel,
			"nick":           nick,
		}).Debug("Removing user mode data")
		if chans, ok := s.modes[mask][channel]; ok {
			delete(chans, nick)
		}
		s.prune(mask, channel, nick)
	}
	return Applied
}

// RenameUser moves the modes of oldNick to newNick in every channel of conn
func (s *Store) RenameUser(conn Connection, oldNick, newNick string) Result {
	mask := Mask(conn)
	log := s.log.WithFields(logrus.Fields{
		"connectionMask": mask,
		"oldNick":        oldNick,
		"newNick":        newNick,
	})

	if oldNick == "" || newNick == "" {
		log.Debug("Missing nick, skipping")
		return SkippedMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chans, ok := s.modes[mask]
	if !ok {
		return SkippedNoData
	}
	if oldNick == newNick {
		return Applied
	}
	for channel, nicks := range chans {
		set, ok := nicks[oldNick]
		if !ok {
			continue
		}
		log.WithField("channel", channel).Debug("Moving user mode data")
		nicks[newNick] = set
		delete(nicks, oldNick)
	}
	return Applied
}

// LoadNames records the modes implied by the prefixes of a NAMES reply.
// channel may carry a leading "=", "*" or "@" status symbol.
func (s *Store) LoadNames(conn Connection, channel string, members []string) Result {
	mask := Mask(conn)
	channel = TrimChannelMarker(channel)
	log := s.log.WithFields(logrus.Fields{
		"connectionMask": mask,
		"channel":        channel,
	})

	if channel == "" {
		log.Debug("Missing channel, skipping")
		return SkippedMissingFields
	}
	log.Debug("Gathering initial user mode data")

	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := 0
	for _, member := range members {
		prefixes, nick := s.prefixes.Split(member)
		if len(prefixes) == 0 {
			continue
		}
		set := s.getOrCreate(mask, channel, nick)
		for _, p := range prefixes {
			mode := s.prefixes[p]
			log.WithFields(logrus.Fields{
				"nick": nick,
				"mode": string(mode),
			}).Debug("Recording user mode")
			set[mode] = struct{}{}
		}
		recorded++
	}

	if recorded == 0 {
		return SkippedNoModes
	}
	return Applied
}

// MoveConnection re-keys everything tracked for from under the mask of to.
// It is used when the connection itself changes nick. Entries already held
// under to are kept unless from has the same channel and nick.
func (s *Store) MoveConnection(from, to Connection) Result {
	oldMask, newMask := Mask(from), Mask(to)
	log := s.log.WithFields(logrus.Fields{
		"oldMask": oldMask,
		"newMask": newMask,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	chans, ok := s.modes[oldMask]
	if !ok {
		return SkippedNoData
	}
	if oldMask == newMask {
		return Applied
	}
	delete(s.modes, oldMask)

	dst, ok := s.modes[newMask]
	if !ok {
		s.modes[newMask] = chans
		log.Debug("Moved connection mode data")
		return Applied
	}
	for channel, nicks := range chans {
		if dst[channel] == nil {
			dst[channel] = nicks
			continue
		}
		for nick, set := range nicks {
			dst[channel][nick] = set
		}
	}
	log.Debug("Merged connection mode data")
	return Applied
}

// Forget drops all state for conn
func (s *Store) Forget(conn Connection) {
	s.ForgetMask(Mask(conn))
}

// ForgetMask drops all state held under a connection mask as returned by Mask
func (s *Store) ForgetMask(mask string) {
	s.mu.Lock()
	delete(s.modes, mask)
	s.mu.Unlock()
}

// HasMode reports whether nick is known to hold mode in channel
func (s *Store) HasMode(conn Connection, channel, nick string, mode rune) bool {
	mask := Mask(conn)

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.modes[mask][channel][nick][mode]
	return ok
}

// Modes returns the sorted mode letters nick holds in channel.
// The result is empty, never nil, when nothing is known.
func (s *Store) Modes(conn Connection, channel, nick string) []rune {
	mask := Mask(conn)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedModes(s.modes[mask][channel][nick])
}

// Channels returns the sorted channels with tracked modes for conn
func (s *Store) Channels(conn Connection) []string {
	mask := Mask(conn)

	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]string, 0, len(s.modes[mask]))
	for channel := range s.modes[mask] {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}

// Users returns every tracked nick in channel with its modes
func (s *Store) Users(conn Connection, channel string) map[string][]rune {
	mask := Mask(conn)

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string][]rune, len(s.modes[mask][channel]))
	for nick, set := range s.modes[mask][channel] {
		users[nick] = sortedModes(set)
	}
	return users
}

// Len returns the number of (connection, channel, nick) entries tracked
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, chans := range s.modes {
		for _, nicks := range chans {
			n += len(nicks)
		}
	}
	return n
}

func (s *Store) getOrCreate(mask, channel, nick string) modeSet {
	chans, ok := s.modes[mask]
	if !ok {
		chans = make(channelModes)
		s.modes[mask] = chans
	}
	nicks, ok := chans[channel]
	if !ok {
		nicks = make(map[string]modeSet)
		chans[channel] = nicks
	}
	set, ok := nicks[nick]
	if !ok {
		set = make(modeSet)
		nicks[nick] = set
	}
	return set
}

// prune removes empty levels along the mask/channel/nick path
func (s *Store) prune(mask, channel, nick string) {
	chans, ok := s.modes[mask]
	if !ok {
		return
	}
	if nicks, ok := chans[channel]; ok {
		if set, ok := nicks[nick]; ok && len(set) == 0 {
			delete(nicks, nick)
		}
		if len(nicks) == 0 {
			delete(chans, channel)
		}
	}
	if len(chans) == 0 {
		delete(s.modes, mask)
	}
}

func sortedModes(set modeSet) []rune {
	modes := make([]rune, 0, len(set))
	for m := range set {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
