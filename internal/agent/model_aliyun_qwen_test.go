package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAliyunQwenChatModel_Validation(t *testing.T) {
	_, err := NewAliyunQwenChatModel("", "qwen-turbo", "")
	assert.Error(t, err, "API密钥为空应报错")

	chatModel, err := NewAliyunQwenChatModel("key", "", "")
	require.NoError(t, err)
	assert.Equal(t, defaultQwenModelName, chatModel.modelName, "未指定模型名时使用默认值")
	assert.Equal(t, openAICompatibleQwenAPIURL, chatModel.apiURL, "未指定地址时使用兼容endpoint")
}

func TestAliyunQwenChatModel_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openAIChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen-turbo", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		content := `{"score": 8}`
		resp := openAICompletionResponse{
			Choices: []openAIChatChoice{
				{Message: openAIMessage{Role: "assistant", Content: &content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	chatModel, err := NewAliyunQwenChatModel("test-key", "qwen-turbo", server.URL)
	require.NoError(t, err)

	message, err := chatModel.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, message.Role)
	assert.Equal(t, `{"score": 8}`, message.Content)
}

func TestAliyunQwenChatModel_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	chatModel, err := NewAliyunQwenChatModel("test-key", "qwen-turbo", server.URL)
	require.NoError(t, err)

	_, err = chatModel.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	require.Error(t, err, "非200响应必须作为错误上抛")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAliyunQwenChatModel_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	chatModel, err := NewAliyunQwenChatModel("test-key", "qwen-turbo", server.URL)
	require.NoError(t, err)

	_, err = chatModel.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	assert.Error(t, err)
}

func TestAliyunQwenChatModel_WithTools(t *testing.T) {
	chatModel, err := NewAliyunQwenChatModel("test-key", "", "")
	require.NoError(t, err)

	// 本服务不使用工具调用，WithTools返回自身
	withTools, err := chatModel.WithTools(nil)
	require.NoError(t, err)
	assert.Same(t, chatModel, withTools)
}

// TestAliyunQwenChatModel_RealAPI 调用真实的阿里云API，默认跳过
func TestAliyunQwenChatModel_RealAPI(t *testing.T) {
	apiKey := os.Getenv("ALIYUN_API_KEY")
	if apiKey == "" || os.Getenv("SKIP_LLM_TESTS") == "true" {
		t.Skip("跳过真实LLM测试 (需要ALIYUN_API_KEY)")
	}

	chatModel, err := NewAliyunQwenChatModel(apiKey, "", "")
	require.NoError(t, err)

	message, err := chatModel.Generate(context.Background(), []*schema.Message{
		schema.UserMessage("Reply with exactly the word: pong"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, message.Content)
	t.Logf("模型回复: %s", message.Content)
}
