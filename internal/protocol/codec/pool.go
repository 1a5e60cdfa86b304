package codec

import (
	"bytes"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

// 对象池，减少高频消息的 GC 压力
var (
	messagePool = sync.Pool{
		New: func() any {
			return &protocol.Message{}
		},
	}

	envelopePool = sync.Pool{
		New: func() any {
			return &structpb.Struct{}
		},
	}

	bufferPool = sync.Pool{
		New: func() any {
			return new(bytes.Buffer)
		},
	}
)

// GetMessage 从池中取出消息
func GetMessage() *protocol.Message {
	return messagePool.Get().(*protocol.Message)
}

// PutMessage 归还消息，字段会被清空
func PutMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	msg.Type = ""
	msg.Payload = nil
	messagePool.Put(msg)
}

// getEnvelope 取出 protobuf 信封
func getEnvelope() *structpb.Struct {
	return envelopePool.Get().(*structpb.Struct)
}

// putEnvelope 归还 protobuf 信封
func putEnvelope(s *structpb.Struct) {
	if s == nil {
		return
	}
	proto.Reset(s)
	envelopePool.Put(s)
}

// GetBuffer 从池中取出缓冲区
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer 归还缓冲区，保留容量
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
