package bale

import (
	"regexp"
	"slices"
	"strings"
)

var (
	// FilterPrivate passes events from one-to-one chats.
	FilterPrivate Filter = func(e *Event) bool {
		if e.Message != nil {
			return e.Message.IsPrivate()
		}
		if e.CallbackQuery != nil && e.CallbackQuery.Message != nil {
			return e.CallbackQuery.Message.IsPrivate()
		}
		return false
	}

	FilterGroup Filter = func(e *Event) bool {
		if e.Message != nil {
			return e.Message.IsGroup()
		}
		if e.CallbackQuery != nil && e.CallbackQuery.Message != nil {
			return e.CallbackQuery.Message.IsGroup()
		}
		return false
	}
)

// FilterUsers passes events sent by one of ids.
func FilterUsers(ids ...int64) Filter {
	return func(e *Event) bool {
		return slices.Contains(ids, e.SenderID())
	}
}

func FilterChats(ids ...int64) Filter {
	return func(e *Event) bool {
		return slices.Contains(ids, e.ChatID())
	}
}

// FilterText passes events whose text (or callback data) matches pattern.
// It panics on an invalid pattern, like regexp.MustCompile.
func FilterText(pattern string) Filter {
	re := regexp.MustCompile(pattern)
	return func(e *Event) bool {
		return re.MatchString(e.Text())
	}
}

func FilterCallbackData(prefix string) Filter {
	return func(e *Event) bool {
		return e.CallbackQuery != nil && strings.HasPrefix(e.CallbackQuery.Data, prefix)
	}
}

// FilterState passes events whose sender is currently in state.
func FilterState(c *Client, state string) Filter {
	return func(e *Event) bool {
		s, ok := c.GetState(e.SenderID())
		return ok && s == state
	}
}

func FilterFunc(fn func(e *Event) bool) Filter {
	return Filter(fn)
}

func And(filters ...Filter) Filter {
	return func(e *Event) bool {
		for _, f := range filters {
			if !f(e) {
				return false
			}
		}
		return true
	}
}

func Or(filters ...Filter) Filter {
	return func(e *Event) bool {
		for _, f := range filters {
			if f(e) {
				return true
			}
		}
		return false
	}
}

func Not(f Filter) Filter {
	return func(e *Event) bool { return !f(e) }
}
