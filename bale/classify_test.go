package bale

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind UpdateKind
		ok   bool
	}{
		{"message", `{"update_id":1,"message":{"message_id":1,"chat":{"id":7},"text":"hi"}}`, OnMessage, true},
		{"edited", `{"update_id":2,"edited_message":{"message_id":1,"chat":{"id":7},"text":"hi!"}}`, OnEditedMessage, true},
		{"callback", `{"update_id":3,"callback_query":{"id":"q","from":{"id":7},"data":"x"}}`, OnCallbackQuery, true},
		{"pre checkout", `{"update_id":4,"pre_checkout_query":{"id":"p","from":{"id":7},"currency":"IRR","total_amount":1000,"invoice_payload":"order-1"}}`, OnPreCheckoutQuery, true},
		{"member joined", `{"update_id":5,"message":{"message_id":2,"chat":{"id":-1},"new_chat_members":[{"id":9}]}}`, OnMemberJoined, true},
		{"member left", `{"update_id":6,"message":{"message_id":3,"chat":{"id":-1},"left_chat_member":{"id":9}}}`, OnMemberLeft, true},
		{"joined wins over left", `{"update_id":7,"message":{"message_id":4,"chat":{"id":-1},"new_chat_members":[{"id":9}],"left_chat_member":{"id":8}}}`, OnMemberJoined, true},
		{"callback wins over message", `{"update_id":8,"message":{"message_id":5,"chat":{"id":7}},"callback_query":{"id":"q","from":{"id":7}}}`, OnCallbackQuery, true},
		{"pre checkout wins over edit", `{"update_id":9,"edited_message":{"message_id":5,"chat":{"id":7}},"pre_checkout_query":{"id":"p","from":{"id":7}}}`, OnPreCheckoutQuery, true},
		{"edit wins over message", `{"update_id":10,"message":{"message_id":5,"chat":{"id":7}},"edited_message":{"message_id":5,"chat":{"id":7}}}`, OnEditedMessage, true},
		{"empty joiners is a message", `{"update_id":11,"message":{"message_id":6,"chat":{"id":7},"new_chat_members":[]}}`, OnMessage, true},
		{"unknown payload", `{"update_id":12,"poll":{"id":"x"}}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u Update
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &u))
			ev, ok := Classify(&u)
			require.Equal(t, tt.ok, ok)
			if !ok {
				assert.Nil(t, ev)
				return
			}
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Same(t, &u, ev.Update)
		})
	}
}

func TestEvent_Accessors(t *testing.T) {
	msg := &Event{Kind: OnMessage, Message: &Message{Chat: Chat{ID: -5}, From: &User{ID: 3}, Caption: "photo caption"}}
	assert.Equal(t, int64(-5), msg.ChatID())
	assert.Equal(t, int64(3), msg.SenderID())
	assert.Equal(t, "photo caption", msg.Text())

	cb := &Event{Kind: OnCallbackQuery, CallbackQuery: &CallbackQuery{From: User{ID: 4}, Data: "vote:1"}}
	assert.Equal(t, int64(4), cb.ChatID(), "inline callbacks fall back to the sender")
	assert.Equal(t, "vote:1", cb.Text())

	channelPost := &Event{Kind: OnMessage, Message: &Message{Chat: Chat{ID: -9}}}
	assert.Zero(t, channelPost.SenderID())
}

func TestUpdate_BindReachesNestedObjects(t *testing.T) {
	c := &Client{}
	var u Update
	require.NoError(t, json.Unmarshal([]byte(`{"update_id":1,"callback_query":{"id":"q","from":{"id":7},"message":{"message_id":2,"chat":{"id":7},"reply_to_message":{"message_id":1,"chat":{"id":7}}}}}`), &u))
	u.bind(c)
	assert.Same(t, c, u.CallbackQuery.Client())
	assert.Same(t, c, u.CallbackQuery.Message.Client())
	assert.Same(t, c, u.CallbackQuery.Message.ReplyToMessage.Client())
}
