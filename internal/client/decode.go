package client

import (
	"encoding/json"
	"errors"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

var errInvalidPayload = errors.New("invalid payload")

func decodeAlert(payload interface{}) (protocol.Alert, error) {
	var alert protocol.Alert
	err := decodePayload(payload, &alert)
	return alert, err
}

func decodeAck(payload interface{}) (protocol.AckPayload, error) {
	var ack protocol.AckPayload
	err := decodePayload(payload, &ack)
	return ack, err
}

func decodeChatMessage(payload interface{}) (protocol.ChatMessage, error) {
	var msg protocol.ChatMessage
	err := decodePayload(payload, &msg)
	return msg, err
}

func decodeSubscriptionConfirmed(payload interface{}) (protocol.SubscriptionConfirmed, error) {
	var confirmed protocol.SubscriptionConfirmed
	err := decodePayload(payload, &confirmed)
	return confirmed, err
}

func decodeRegionsUpdated(payload interface{}) (protocol.RegionsUpdated, error) {
	var updated protocol.RegionsUpdated
	err := decodePayload(payload, &updated)
	return updated, err
}

func decodePayload(payload interface{}, target interface{}) error {
	if payload == nil {
		return errInvalidPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
