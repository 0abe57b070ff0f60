// Copyright (c) 2024 RoseLoverX

package bale

// UpdateKind names what an update is about. The values double as the wire
// field names where one exists.
type UpdateKind string

const (
	OnMessage          UpdateKind = "message"
	OnEditedMessage    UpdateKind = "edited_message"
	OnCallbackQuery    UpdateKind = "callback_query"
	OnPreCheckoutQuery UpdateKind = "pre_checkout_query"
	OnMemberJoined     UpdateKind = "member_joined"
	OnMemberLeft       UpdateKind = "member_left"
)

// Kinds lists every kind an update can classify to.
var Kinds = []UpdateKind{
	OnMessage, OnEditedMessage, OnCallbackQuery, OnPreCheckoutQuery, OnMemberJoined, OnMemberLeft,
}

func (k UpdateKind) valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Event is a classified update. Message is set for the message, edit and
// member kinds; CallbackQuery and PreCheckoutQuery for their own kinds.
type Event struct {
	Kind             UpdateKind
	Message          *Message
	CallbackQuery    *CallbackQuery
	PreCheckoutQuery *PreCheckoutQuery
	Update           *Update
}

// ChatID returns the chat the event belongs to, or 0 when it has none.
func (e *Event) ChatID() int64 {
	switch {
	case e.Message != nil:
		return e.Message.Chat.ID
	case e.CallbackQuery != nil:
		return e.CallbackQuery.ChatID()
	case e.PreCheckoutQuery != nil:
		return e.PreCheckoutQuery.From.ID
	}
	return 0
}

func (e *Event) SenderID() int64 {
	switch {
	case e.Message != nil:
		return e.Message.SenderID()
	case e.CallbackQuery != nil:
		return e.CallbackQuery.From.ID
	case e.PreCheckoutQuery != nil:
		return e.PreCheckoutQuery.From.ID
	}
	return 0
}

// Text is the message text (or caption), or the callback data.
func (e *Event) Text() string {
	switch {
	case e.Message != nil:
		if e.Message.Text != "" {
			return e.Message.Text
		}
		return e.Message.Caption
	case e.CallbackQuery != nil:
		return e.CallbackQuery.Data
	}
	return ""
}

// Classify maps an update to the event the handlers see. It reports false
// for updates carrying none of the supported payloads.
func Classify(u *Update) (*Event, bool) {
	ev := &Event{Update: u}
	switch {
	case u.CallbackQuery != nil:
		ev.Kind, ev.CallbackQuery = OnCallbackQuery, u.CallbackQuery
	case u.PreCheckoutQuery != nil:
		ev.Kind, ev.PreCheckoutQuery = OnPreCheckoutQuery, u.PreCheckoutQuery
	case u.EditedMessage != nil:
		ev.Kind, ev.Message = OnEditedMessage, u.EditedMessage
	case u.Message != nil && len(u.Message.NewChatMembers) > 0:
		ev.Kind, ev.Message = OnMemberJoined, u.Message
	case u.Message != nil && u.Message.LeftChatMember != nil:
		ev.Kind, ev.Message = OnMemberLeft, u.Message
	case u.Message != nil:
		ev.Kind, ev.Message = OnMessage, u.Message
	default:
		return nil, false
	}
	return ev, true
}
