// Package chattest 提供测试用的 chat model
package chattest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"contractscan/logic/chat"
)

// Fake 依次返回 Replies, 用尽后重复最后一条. Err 非空时总是返回错误
type Fake struct {
	Replies []string
	Err     error

	mu    sync.Mutex
	calls [][]*schema.Message
}

func (f *Fake) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, input)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Replies) == 0 {
		return nil, errors.New("no reply configured")
	}
	i := min(len(f.calls), len(f.Replies)) - 1
	return schema.AssistantMessage(f.Replies[i], nil), nil
}

func (f *Fake) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls 返回每次调用收到的消息
func (f *Fake) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*schema.Message(nil), f.calls...)
}

// Model 包装成 chat.Model, 默认支持图片
func (f *Fake) Model() *chat.Model {
	return &chat.Model{BaseChatModel: f, Provider: "OpenAI", Name: "gpt-4o-mini", Vision: true}
}
