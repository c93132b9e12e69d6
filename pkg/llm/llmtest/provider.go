// Package llmtest provides a scripted LLMProvider for tests. Replies are
// chosen by the task name found on the first "TASK:" line of the prompt
// (or of the first system message for chat calls).
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"money-coach-be/pkg/llm"
)

// ErrUnscripted is returned for tasks with no reply registered.
var ErrUnscripted = errors.New("llmtest: no reply scripted for task")

type Call struct {
	Task    string
	Prompt  string
	History []llm.Message
	Options llm.Options
}

type Reply func(call Call) (string, error)

type Provider struct {
	mu      sync.Mutex
	replies map[string]Reply
	calls   []Call
}

var _ llm.LLMProvider = (*Provider)(nil)

func New() *Provider {
	return &Provider{replies: map[string]Reply{}}
}

// On registers a fixed reply for task.
func (p *Provider) On(task, reply string) *Provider {
	return p.OnFunc(task, func(Call) (string, error) { return reply, nil })
}

// Fail makes every call for task return err.
func (p *Provider) Fail(task string, err error) *Provider {
	return p.OnFunc(task, func(Call) (string, error) { return "", err })
}

func (p *Provider) OnFunc(task string, fn Reply) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies[task] = fn
	return p
}

// Calls returns the calls made for task, or all calls when task is empty.
func (p *Provider) Calls(task string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.calls {
		if task == "" || c.Task == task {
			out = append(out, c)
		}
	}
	return out
}

func taskOf(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "TASK:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "TASK:"))
		}
	}
	return ""
}

func (p *Provider) dispatch(ctx context.Context, history []llm.Message, options []llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts := llm.NewOptions(llm.Options{}, options...)
	var prompt string
	if len(history) > 0 {
		prompt = history[0].Content
	}
	call := Call{Task: taskOf(prompt), Prompt: prompt, History: history, Options: *opts}

	p.mu.Lock()
	p.calls = append(p.calls, call)
	fn, ok := p.replies[call.Task]
	p.mu.Unlock()

	if !ok {
		return "", ErrUnscripted
	}
	return fn(call)
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.dispatch(ctx, history, options)
}

// ChatStream emits the scripted reply word by word.
func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, onDelta func(string), options ...llm.Option) (string, error) {
	reply, err := p.dispatch(ctx, history, options)
	if err != nil {
		return "", err
	}
	if onDelta != nil {
		words := strings.SplitAfter(reply, " ")
		for _, w := range words {
			if w != "" {
				onDelta(w)
			}
		}
	}
	return reply, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.dispatch(ctx, []llm.Message{{Role: "user", Content: prompt}}, options)
}
