package http

import (
	"encoding/json"

	"github.com/akazarov/roomchat/internal/core"
	"github.com/akazarov/roomchat/internal/proto"
)

// timestampLayout is the presentation form of message timestamps.
const timestampLayout = "15:04"

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.RoomID == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room_id is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandJoinRoom,
			RoomID: join.RoomID,
		}, nil, nil
	case proto.InboundTypeSend:
		var msg proto.SendData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.RoomID == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room_id is required"}, nil
		}
		if msg.Content == "" && msg.FileURL == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message is empty"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendMessage,
			RoomID:  msg.RoomID,
			Body:    msg.Content,
			FileURL: msg.FileURL,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data:  receiveMessageFromCore(event.Message),
		}
	case core.EventHistory:
		messages := make([]proto.ReceiveMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, receiveMessageFromCore(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventHistory,
			Data: proto.History{
				RoomID:   event.RoomID,
				Messages: messages,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func receiveMessageFromCore(msg core.Message) proto.ReceiveMessage {
	return proto.ReceiveMessage{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Username:  msg.Author,
		Content:   msg.Body,
		FileURL:   msg.FileURL,
		Timestamp: msg.CreatedAt.Format(timestampLayout),
	}
}
