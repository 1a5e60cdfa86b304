package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

// protobuf 信封字段
const (
	fieldType    = "type"
	fieldPayload = "payload"
)

// EncodeProto 将消息编码为 protobuf 二进制，信封为 google.protobuf.Struct
func EncodeProto(m *protocol.Message) ([]byte, error) {
	env := getEnvelope()
	defer putEnvelope(env)

	env.Fields = map[string]*structpb.Value{
		fieldType: structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return nil, fmt.Errorf("payload 不是合法 JSON: %w", err)
		}
		v, err := structpb.NewValue(payload)
		if err != nil {
			return nil, err
		}
		env.Fields[fieldPayload] = v
	}
	return proto.Marshal(env)
}

// DecodeProto 从 protobuf 二进制解码消息
func DecodeProto(data []byte) (*protocol.Message, error) {
	env := getEnvelope()
	defer putEnvelope(env)

	if err := proto.Unmarshal(data, env); err != nil {
		return nil, err
	}
	msgType := env.GetFields()[fieldType].GetStringValue()
	if msgType == "" {
		return nil, fmt.Errorf("消息缺少 type 字段")
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(msgType)
	if v, ok := env.GetFields()[fieldPayload]; ok {
		payload, err := json.Marshal(v.AsInterface())
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = payload
	}
	return msg, nil
}
