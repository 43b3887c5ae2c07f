// internal/config/model.go
//
// Typed settings model for AutoMCP.
//
// Context
// -------
// These fields define the shape of the settings tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • compiled-in defaults (defaultSettings)      – lowest precedence,
//   • optional `conf/automcp.yaml`                – static file,
//   • optional `.env`                             – dotenv values,
//   • real environment variables                  – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the process fails fast
// if a field cannot satisfy its constraints.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"` for the merged tree and `json:"…"` for
//     masked settings dumps; `validate:"…"` rules run after unmarshal.
//   • Field names map 1:1 to uppercase environment keys; fields.go holds
//     the registry binding env key, tree path, and coercion kind.
//   • The `Paths` block is filled at runtime; files and env must not set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// Root aggregate
//

// Settings is the immutable snapshot returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Settings struct {
	// Runtime identity.
	Env   string `koanf:"env"   json:"env" validate:"required,oneof=development staging production test"`
	Debug bool   `koanf:"debug" json:"debug"`
	Port  int    `koanf:"port"  json:"port" validate:"required,gte=1,lte=65535"`

	// Primary LLM provider.
	OpenAIAPIKey    Secret `koanf:"openai_api_key"    json:"openai_api_key"`
	OpenAIBaseURL   string `koanf:"openai_base_url"   json:"openai_base_url" validate:"omitempty,url"`
	AnthropicAPIKey Secret `koanf:"anthropic_api_key" json:"anthropic_api_key"`
	DefaultLLMModel string `koanf:"default_llm_model" json:"default_llm_model" validate:"required"`

	// Intent-classifier provider, usually a local OpenAI-compatible
	// endpoint; the API key defaults to the placeholder such servers expect.
	ClassifierModel   string `koanf:"classifier_model"    json:"classifier_model"`
	ClassifierBaseURL string `koanf:"classifier_base_url" json:"classifier_base_url" validate:"omitempty,url"`
	ClassifierAPIKey  Secret `koanf:"classifier_api_key"  json:"classifier_api_key"`

	// Embeddings.
	EmbeddingModel string `koanf:"embedding_model" json:"embedding_model"`

	// Signing key for session material.
	SecretKey Secret `koanf:"secret_key" json:"secret_key"`

	// Storage locations, joined onto Paths.Root by callers when relative.
	ChromaDBPath string `koanf:"chroma_db_path" json:"chroma_db_path" validate:"required"`
	SQLiteDBPath string `koanf:"sqlite_db_path" json:"sqlite_db_path" validate:"required"`

	// Task-engine retry ceilings.
	MaxSubtaskRetries int `koanf:"max_subtask_retries" json:"max_subtask_retries" validate:"gte=0"`
	MaxPlanRetries    int `koanf:"max_plan_retries"    json:"max_plan_retries" validate:"gte=0"`

	Paths Paths `koanf:"-" json:"paths"` // not loaded from files or env
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (AUTOMCP_ROOT override or nearest ancestor holding
// conf/ or .env) so later code can build absolute file paths.
type Paths struct {
	Root string `json:"root"`
}

// Production reports whether the snapshot targets the production
// environment.
func (s *Settings) Production() bool { return s.Env == "production" }

//
// Defaults
//

// defaultSettings returns the compiled-in baseline layered under the YAML
// file, the dotenv file, and the environment.  A bare environment yields
// exactly this snapshot.
func defaultSettings() *Settings {
	return &Settings{
		Env:   "development",
		Debug: true,
		Port:  7879,

		OpenAIBaseURL:   "https://api.openai.com/v1",
		DefaultLLMModel: "gpt-4o",

		ClassifierModel:   "qwen2.5:1.5b",
		ClassifierBaseURL: "http://localhost:11434/v1",
		ClassifierAPIKey:  "ollama",

		EmbeddingModel: "text-embedding-3-small",

		SecretKey: "unsafe-default-key-change-me",

		ChromaDBPath: "./data/chroma",
		SQLiteDBPath: "./data/automcp.db",

		MaxSubtaskRetries: 3,
		MaxPlanRetries:    2,
	}
}
