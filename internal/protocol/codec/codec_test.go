package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Format
		hasError bool
	}{
		{input: "", expected: FormatJSON},
		{input: "json", expected: FormatJSON},
		{input: "protobuf", expected: FormatProtobuf},
		{input: "proto", expected: FormatProtobuf},
		{input: "xml", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			f, err := ParseFormat(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
	assert.Equal(t, "protobuf", FormatProtobuf.String())
}

func TestEncodeDecode_BothFormats(t *testing.T) {
	t.Parallel()

	value := 4
	msg := MustNewMessage(protocol.MsgPlaceBid, protocol.PlaceBidPayload{
		Cards: []string{"HA", "C6"},
		Value: &value,
	})

	for _, f := range []Format{FormatJSON, FormatProtobuf} {
		t.Run(f.String(), func(t *testing.T) {
			t.Parallel()
			data, err := EncodeAs(f, msg)
			require.NoError(t, err)

			decoded, err := DecodeAs(f, data)
			require.NoError(t, err)
			assert.Equal(t, protocol.MsgPlaceBid, decoded.Type)

			payload, err := ParsePayload[protocol.PlaceBidPayload](decoded)
			require.NoError(t, err)
			assert.Equal(t, []string{"HA", "C6"}, payload.Cards)
			require.NotNil(t, payload.Value)
			assert.Equal(t, 4, *payload.Value)
		})
	}
}

func TestEncodeDecode_NoPayload(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgStartGame, nil)
	for _, f := range []Format{FormatJSON, FormatProtobuf} {
		data, err := EncodeAs(f, msg)
		require.NoError(t, err)

		decoded, err := DecodeAs(f, data)
		require.NoError(t, err)
		assert.Equal(t, protocol.MsgStartGame, decoded.Type)
		assert.Empty(t, decoded.Payload)

		payload, err := ParsePayload[protocol.JoinTablePayload](decoded)
		require.NoError(t, err)
		assert.Empty(t, payload.TableCode)
	}
}

func TestEncode_JSONShape(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgJoinTable, protocol.JoinTablePayload{TableCode: "123456"})
	data, err := Encode(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join_table","payload":{"table_code":"123456"}}`, string(data))
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = DecodeProto([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	empty, err := EncodeProto(&protocol.Message{})
	require.NoError(t, err)
	_, err = DecodeProto(empty)
	assert.Error(t, err)
}

func TestEncodeProto_RejectsBadPayload(t *testing.T) {
	t.Parallel()

	_, err := EncodeProto(&protocol.Message{Type: protocol.MsgPing, Payload: []byte("{broken")})
	assert.Error(t, err)
}

func TestParsePayload_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParsePayload[protocol.PlayCardPayload](&protocol.Message{Type: protocol.MsgPlayCard, Payload: []byte(`{"card_id":1}`)})
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeNotYourTurn)
	require.NotNil(t, msg)
	assert.Equal(t, protocol.MsgError, msg.Type)

	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNotYourTurn, payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeNotYourTurn], payload.Message)

	custom := NewErrorMessageWithText(protocol.ErrCodeInvalidAction, "叫分超出范围")
	payload, err = ParsePayload[protocol.ErrorPayload](custom)
	require.NoError(t, err)
	assert.Equal(t, "叫分超出范围", payload.Message)
}
