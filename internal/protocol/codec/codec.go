package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

// Format 传输格式
type Format int

const (
	FormatJSON     Format = iota // 文本帧
	FormatProtobuf               // 二进制帧
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatProtobuf:
		return "protobuf"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat 解析配置中的格式名称
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "protobuf", "proto":
		return FormatProtobuf, nil
	default:
		return FormatJSON, fmt.Errorf("未知的传输格式: %q", s)
	}
}

// NewMessage 创建一个新消息
// 注意: 使用完毕后可调用 PutMessage 归还对象到池
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := GetMessage()
	msg.Type = msgType

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 字节
func Encode(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Decode 从 JSON 字节解码消息
func Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, fmt.Errorf("消息缺少 type 字段")
	}
	return msg, nil
}

// EncodeAs 按指定格式编码
func EncodeAs(f Format, m *protocol.Message) ([]byte, error) {
	if f == FormatProtobuf {
		return EncodeProto(m)
	}
	return Encode(m)
}

// DecodeAs 按指定格式解码
func DecodeAs(f Format, data []byte) (*protocol.Message, error) {
	if f == FormatProtobuf {
		return DecodeProto(data)
	}
	return Decode(data)
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}
