package codec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	assert.NotNil(t, msg)

	msg.Type = "test"
	msg.Payload = []byte("data")
	PutMessage(msg)

	msg2 := GetMessage()
	assert.NotNil(t, msg2)
	assert.Empty(t, msg2.Type)
	assert.Nil(t, msg2.Payload)
}

func TestMessagePool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutMessage(nil)
		PutBuffer(nil)
		putEnvelope(nil)
	})
}

func TestEnvelopePool_Reset(t *testing.T) {
	t.Parallel()

	env := getEnvelope()
	env.Fields = map[string]*structpb.Value{fieldType: structpb.NewStringValue("ping")}
	putEnvelope(env)

	env2 := getEnvelope()
	assert.Empty(t, env2.GetFields())
}

func TestBufferPool_GetPut(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	assert.NotNil(t, buf)
	assert.Equal(t, 0, buf.Len())

	buf.WriteString("test data")
	assert.Equal(t, 9, buf.Len())
	PutBuffer(buf)

	buf2 := GetBuffer()
	assert.Equal(t, 0, buf2.Len())
}

func TestPools_Concurrency(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			msg := GetMessage()
			msg.Type = "concurrent"
			PutMessage(msg)

			buf := GetBuffer()
			buf.WriteString("concurrent test")
			PutBuffer(buf)

			data, err := EncodeProto(&protocol.Message{Type: protocol.MsgPing})
			if assert.NoError(t, err) {
				decoded, err := DecodeProto(data)
				if assert.NoError(t, err) {
					PutMessage(decoded)
				}
			}
		})
	}
	wg.Wait()
}

func BenchmarkMessagePool_GetPut(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			msg := GetMessage()
			msg.Type = "benchmark"
			msg.Payload = []byte("test")
			PutMessage(msg)
		}
	})
}

func BenchmarkEncode_JSONvsProto(b *testing.B) {
	msg := MustNewMessage(protocol.MsgPlaceBid, protocol.PlaceBidPayload{Cards: []string{"HA", "C6", "S10"}})

	b.Run("json", func(b *testing.B) {
		for b.Loop() {
			_, _ = Encode(msg)
		}
	})
	b.Run("protobuf", func(b *testing.B) {
		for b.Loop() {
			_, _ = EncodeProto(msg)
		}
	})
}
