//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/ninety-nine/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetTable() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetTable(code string) {
	m.Called(code)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用的测试）。
// AI 定时器会在其他 goroutine 中发消息，所以读写都加锁
type SimpleClient struct {
	ID        string
	Name      string
	TableCode string

	mu       sync.Mutex
	messages []*protocol.Message
}

// NewSimpleClient 创建简单客户端
func NewSimpleClient(id, name string) *SimpleClient {
	return &SimpleClient{ID: id, Name: name}
}

func (m *SimpleClient) GetID() string   { return m.ID }
func (m *SimpleClient) GetName() string { return m.Name }
func (m *SimpleClient) Close()          {}

func (m *SimpleClient) GetTable() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TableCode
}

func (m *SimpleClient) SetTable(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TableCode = code
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Messages 返回收到的消息副本
func (m *SimpleClient) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

// MessagesOfType 返回指定类型的消息
func (m *SimpleClient) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	var result []*protocol.Message
	for _, msg := range m.Messages() {
		if msg.Type == t {
			result = append(result, msg)
		}
	}
	return result
}

// LastOfType 返回最后一条指定类型的消息，没有时返回 nil
func (m *SimpleClient) LastOfType(t protocol.MessageType) *protocol.Message {
	msgs := m.MessagesOfType(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Reset 清空已收到的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
