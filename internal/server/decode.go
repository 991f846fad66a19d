package server

import (
	"encoding/json"
	"errors"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

var errInvalidPayload = errors.New("invalid payload")

func decodeSubscribeRequest(payload interface{}) (protocol.SubscribeRequest, error) {
	var req protocol.SubscribeRequest
	err := decodePayload(payload, &req)
	return req, err
}

func decodeUnsubscribeRequest(payload interface{}) (protocol.UnsubscribeRequest, error) {
	var req protocol.UnsubscribeRequest
	err := decodePayload(payload, &req)
	return req, err
}

func decodeUpdateRegionsRequest(payload interface{}) (protocol.UpdateRegionsRequest, error) {
	var req protocol.UpdateRegionsRequest
	err := decodePayload(payload, &req)
	return req, err
}

func decodePublishAlertRequest(payload interface{}) (protocol.PublishAlertRequest, error) {
	var req protocol.PublishAlertRequest
	err := decodePayload(payload, &req)
	return req, err
}

func decodeChatMessage(payload interface{}) (protocol.ChatMessage, error) {
	var msg protocol.ChatMessage
	err := decodePayload(payload, &msg)
	return msg, err
}

// decodePayload re-marshals the free-form payload into its fixed schema.
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
