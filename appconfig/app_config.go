package appconfig

import (
	"fmt"
	"os"

	"letterflow/schema"
)

// AppConfig is the immutable run configuration. Knobs come from config.ini;
// credentials come from the environment (loaded via dotenv before this).
type AppConfig struct {
	OCRProvider string `ini:"ocr_provider"` // aws | azure
	LLMProvider string `ini:"llm_provider"` // chatgpt | claude | llama

	BatchSize  int `ini:"batch_size"`
	MaxThreads int `ini:"max_threads"`

	InputDir  string `ini:"input_dir"`
	OutputDir string `ini:"output_dir"`
	TmpDir    string `ini:"tmp_dir"`

	ConvertCommand string `ini:"convert_command"`

	BucketName string `ini:"bucket_name"`
	Region     string `ini:"region"`

	OCRMaxRetries        int `ini:"ocr_max_retries"`
	OCRRetryDelaySeconds int `ini:"ocr_retry_delay_seconds"`

	ChatGPTModel string `ini:"chatgpt_model"`
	ClaudeModel  string `ini:"claude_model"`
	LlamaModel   string `ini:"llama_model"`
}

// Model returns the model name for the selected LLM provider.
func (c *AppConfig) Model() string {
	switch c.LLMProvider {
	case "claude":
		return c.ClaudeModel
	case "llama":
		return c.LlamaModel
	}
	return c.ChatGPTModel
}

// Validate fills defaults and enforces the options required by the selected
// providers. Any violation is a configuration error and must abort the run
// before documents are processed.
func (c *AppConfig) Validate() error {
	if c.OCRProvider == "" {
		c.OCRProvider = "aws"
	}
	if c.LLMProvider == "" {
		c.LLMProvider = "chatgpt"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.MaxThreads <= 0 {
		c.MaxThreads = 4
	}
	if c.ConvertCommand == "" {
		c.ConvertCommand = "convert"
	}
	if c.OCRMaxRetries <= 0 {
		c.OCRMaxRetries = 120
	}
	if c.OCRRetryDelaySeconds <= 0 {
		c.OCRRetryDelaySeconds = 5
	}
	if c.ChatGPTModel == "" {
		c.ChatGPTModel = "gpt-4o-mini"
	}
	if c.ClaudeModel == "" {
		c.ClaudeModel = "claude-3-7-sonnet-20250219"
	}
	if c.LlamaModel == "" {
		c.LlamaModel = "llama3.1:8b"
	}

	if c.InputDir == "" {
		return schema.Errorf(schema.KindConfiguration, "input_dir is not set")
	}
	if info, err := os.Stat(c.InputDir); err != nil || !info.IsDir() {
		return schema.Errorf(schema.KindConfiguration, "input_dir %q does not exist", c.InputDir)
	}
	if c.OutputDir == "" {
		return schema.Errorf(schema.KindConfiguration, "output_dir is not set")
	}
	if c.TmpDir == "" {
		return schema.Errorf(schema.KindConfiguration, "tmp_dir is not set")
	}

	switch c.OCRProvider {
	case "aws":
		if c.BucketName == "" || c.Region == "" {
			return schema.Errorf(schema.KindConfiguration, "aws ocr provider requires bucket_name and region")
		}
	case "azure":
		if err := requireEnv("AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT", "AZURE_DOCUMENT_INTELLIGENCE_KEY"); err != nil {
			return err
		}
	default:
		return schema.Errorf(schema.KindConfiguration, "unknown ocr_provider: %s", c.OCRProvider)
	}

	switch c.LLMProvider {
	case "chatgpt":
		if err := requireEnv("OPENAI_API_KEY"); err != nil {
			return err
		}
	case "claude":
		if err := requireEnv("ANTHROPIC_API_KEY"); err != nil {
			return err
		}
	case "llama":
		// Ollama runs locally, no credentials.
	default:
		return schema.Errorf(schema.KindConfiguration, "unknown llm_provider: %s", c.LLMProvider)
	}

	return nil
}

func requireEnv(keys ...string) error {
	for _, k := range keys {
		if os.Getenv(k) == "" {
			return schema.NewError(schema.KindConfiguration,
				fmt.Errorf("%s environment variable is not set", k))
		}
	}
	return nil
}
