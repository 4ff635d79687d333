package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type fakeInvoker struct {
	body  []byte
	err   error
	input *bedrockruntime.InvokeModelInput
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

var testParams = Params{MaxTokens: 2000, Temperature: 0.7, TopP: 0.9}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	return m
}

func TestBedrockModel_Anthropic(t *testing.T) {
	inv := &fakeInvoker{body: []byte(`{"content":[{"type":"text","text":"Lambda is serverless."}]}`)}
	m := NewBedrockModel(inv, "Claude 3.5 Sonnet", "us.anthropic.claude-3-5-sonnet-20241022-v2:0", AnthropicSchema{}, testParams)

	answer, err := m.Generate(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "Lambda is serverless." {
		t.Errorf("unexpected answer: %q", answer)
	}
	if aws.ToString(inv.input.ModelId) != "us.anthropic.claude-3-5-sonnet-20241022-v2:0" {
		t.Errorf("unexpected model id: %s", aws.ToString(inv.input.ModelId))
	}

	req := decodeBody(t, inv.input.Body)
	if req["anthropic_version"] != "bedrock-2023-05-31" {
		t.Errorf("anthropic_version = %v", req["anthropic_version"])
	}
	if req["max_tokens"] != float64(2000) {
		t.Errorf("max_tokens = %v", req["max_tokens"])
	}
	msgs, _ := req["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", req["messages"])
	}
	msg := msgs[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "the prompt" {
		t.Errorf("unexpected message: %v", msg)
	}
}

func TestBedrockModel_Llama(t *testing.T) {
	inv := &fakeInvoker{body: []byte(`{"generation":"llama answer","stop_reason":"stop"}`)}
	m := NewBedrockModel(inv, "Meta Llama 3 70B", "meta.llama3-70b-instruct-v1:0", LlamaSchema{}, testParams)

	answer, err := m.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "llama answer" {
		t.Errorf("unexpected answer: %q", answer)
	}

	req := decodeBody(t, inv.input.Body)
	if req["prompt"] != "p" || req["max_gen_len"] != float64(2000) || req["top_p"] != 0.9 {
		t.Errorf("unexpected llama request: %v", req)
	}
}

func TestBedrockModel_Titan(t *testing.T) {
	inv := &fakeInvoker{body: []byte(`{"inputTextTokenCount":5,"results":[{"outputText":"titan answer","completionReason":"FINISH"}]}`)}
	m := NewBedrockModel(inv, "Amazon Titan Express", "amazon.titan-text-express-v1", TitanSchema{}, testParams)

	answer, err := m.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "titan answer" {
		t.Errorf("unexpected answer: %q", answer)
	}

	req := decodeBody(t, inv.input.Body)
	if req["inputText"] != "p" {
		t.Errorf("inputText = %v", req["inputText"])
	}
	cfg, _ := req["textGenerationConfig"].(map[string]any)
	if cfg["maxTokenCount"] != float64(2000) || cfg["topP"] != 0.9 || cfg["temperature"] != 0.7 {
		t.Errorf("unexpected textGenerationConfig: %v", cfg)
	}
}

func TestBedrockModel_InvokeError(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("ThrottlingException")}
	m := NewBedrockModel(inv, "x", "model-x", TitanSchema{}, testParams)

	_, err := m.Generate(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "ThrottlingException") {
		t.Fatalf("expected wrapped throttling error, got %v", err)
	}
}

func TestSchemas_MalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		body   string
	}{
		{"anthropic empty content", AnthropicSchema{}, `{"content":[]}`},
		{"anthropic not json", AnthropicSchema{}, `nope`},
		{"llama missing generation", LlamaSchema{}, `{"stop_reason":"length"}`},
		{"titan no results", TitanSchema{}, `{"results":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.schema.DecodeResponse([]byte(tt.body)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestSchemaFor(t *testing.T) {
	for _, name := range []string{"anthropic", "llama", "titan", "Titan"} {
		if _, err := SchemaFor(name); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
	if _, err := SchemaFor("cohere"); err == nil {
		t.Error("expected error for unknown schema")
	}
}
