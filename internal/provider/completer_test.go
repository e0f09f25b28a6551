package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel records what it was asked and replies with a fixed message.
type fakeChatModel struct {
	reply *schema.Message
	err   error

	gotMsgs []*schema.Message
	gotOpts *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.gotMsgs = input
	f.gotOpts = model.GetCommonOptions(&model.Options{}, opts...)
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestCompleter_SendsSingleUserMessage(t *testing.T) {
	t.Parallel()

	fm := &fakeChatModel{reply: schema.AssistantMessage("FooCoin is a honeypot.", nil)}
	cfg := &Config{Backend: BackendOllama, Ollama: ProviderOllama{Model: "llama3"}, Tuning: SharedTuning{MaxTokens: 256, Temperature: 0.75}}
	c := NewCompleter(fm, cfg)

	got, err := c.Complete(context.Background(), "[INST] is FooCoin a rug? [/INST]")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "FooCoin is a honeypot." {
		t.Errorf("want reply content verbatim, got %q", got)
	}
	if len(fm.gotMsgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(fm.gotMsgs))
	}
	if fm.gotMsgs[0].Role != schema.User {
		t.Errorf("want user role, got %q", fm.gotMsgs[0].Role)
	}
	if fm.gotMsgs[0].Content != "[INST] is FooCoin a rug? [/INST]" {
		t.Errorf("prompt not sent verbatim: %q", fm.gotMsgs[0].Content)
	}
	if fm.gotOpts.Temperature == nil || *fm.gotOpts.Temperature != 0.75 {
		t.Errorf("want temperature 0.75, got %v", fm.gotOpts.Temperature)
	}
	if fm.gotOpts.MaxTokens == nil || *fm.gotOpts.MaxTokens != 256 {
		t.Errorf("want max tokens 256, got %v", fm.gotOpts.MaxTokens)
	}
}

func TestCompleter_ReasoningDeploymentGetsNoSamplingOptions(t *testing.T) {
	t.Parallel()

	fm := &fakeChatModel{reply: schema.AssistantMessage("ok", nil)}
	cfg := &Config{
		Backend:     BackendAzure,
		AzureOpenAI: ProviderAzureOpenAI{Deployment: "o3-mini"},
		Tuning:      SharedTuning{MaxTokens: 256, Temperature: 0.75},
	}
	if _, err := NewCompleter(fm, cfg).Complete(context.Background(), "p"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if fm.gotOpts.Temperature != nil || fm.gotOpts.MaxTokens != nil {
		t.Errorf("reasoning deployment should not receive sampling options, got %+v", fm.gotOpts)
	}
}

func TestCompleter_NilConfig(t *testing.T) {
	t.Parallel()

	fm := &fakeChatModel{reply: schema.AssistantMessage("ok", nil)}
	if _, err := NewCompleter(fm, nil).Complete(context.Background(), "p"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if fm.gotOpts.Temperature != nil {
		t.Errorf("nil config should leave model defaults, got temperature %v", *fm.gotOpts.Temperature)
	}
}

func TestCompleter_Errors(t *testing.T) {
	t.Parallel()

	cause := context.DeadlineExceeded
	c := NewCompleter(&fakeChatModel{err: cause}, nil)
	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, cause) {
		t.Errorf("want wrapped %v, got %v", cause, err)
	}

	c = NewCompleter(&fakeChatModel{}, nil)
	if _, err := c.Complete(context.Background(), "p"); err == nil {
		t.Error("want error on nil reply")
	}
}
