package irc

import "strings"

// chanModes holds the RPL_ISUPPORT CHANMODES groups that take arguments
type chanModes struct {
	// always take an argument (list modes and A/B types)
	always map[rune]struct{}
	// take an argument only when being set (type C)
	onSet map[rune]struct{}
}

func defaultChanModes() chanModes {
	return parseChanModes("beI,k,l,imnpst")
}

// parseChanModes parses a CHANMODES value like "beI,k,l,imnpst"
func parseChanModes(value string) chanModes {
	cm := chanModes{
		always: make(map[rune]struct{}),
		onSet:  make(map[rune]struct{}),
	}
	groups := strings.Split(value, ",")
	for i, group := range groups {
		for _, m := range group {
			switch i {
			case 0, 1:
				cm.always[m] = struct{}{}
			case 2:
				cm.onSet[m] = struct{}{}
			}
		}
	}
	return cm
}

// memberChange is a single membership mode change for one nick
type memberChange struct {
	nick   string
	change string
}

// decodeModeChanges splits a channel MODE into per-nick changes like "+o" for
// the membership letters in members. Other letters only consume their
// arguments. A membership letter with no argument left yields an empty nick.
func decodeModeChanges(modestring string, args []string, members map[rune]struct{}, cm chanModes) []memberChange {
	var changes []memberChange
	sign := '+'
	next := func() string {
		if len(args) == 0 {
			return ""
		}
		arg := args[0]
		args = args[1:]
		return arg
	}

	for _, m := range modestring {
		switch m {
		case '+', '-':
			sign = m
			continue
		}

		if _, ok := members[m]; ok {
			changes = append(changes, memberChange{
				nick:   next(),
				change: string(sign) + string(m),
			})
			continue
		}
		if _, ok := cm.always[m]; ok {
			next()
		} else if _, ok := cm.onSet[m]; ok && sign == '+' {
			next()
		}
	}
	return changes
}
