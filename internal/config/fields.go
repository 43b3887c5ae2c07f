// internal/config/fields.go
//
// Registry binding environment keys to tree paths and coercion kinds.
//
// Context
// -------
// Environment variables arrive as flat strings, so each settings field
// declares how its raw token becomes a typed value.  The loader walks this
// table twice: once inside the env provider to admit only recognized keys,
// and once after the merge to coerce string tokens into native bools and
// ints before unmarshal.  A token that cannot be coerced aborts the load
// with a ValidationError naming the environment key.
//
// Notes
// -----
//   • Unrecognized environment variables are ignored, never errors.
//   • A variable set to the empty string counts as unset.
//   • Boolean tokens accept true/false, 1/0, yes/no, and on/off in any
//     case; integers must parse exactly, with no silent truncation.

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// fieldKind selects the coercion applied to a raw merged value.
type fieldKind int

const (
	kindString fieldKind = iota
	kindBool
	kindInt
	kindSecret
)

// field ties one settings entry across its three namespaces.
type field struct {
	env    string    // environment key, e.g. "PORT"
	path   string    // koanf tree path, e.g. "port"
	goName string    // Settings struct field, for validator mapping
	kind   fieldKind
}

var fields = []field{
	{"ENV", "env", "Env", kindString},
	{"DEBUG", "debug", "Debug", kindBool},
	{"PORT", "port", "Port", kindInt},
	{"OPENAI_API_KEY", "openai_api_key", "OpenAIAPIKey", kindSecret},
	{"OPENAI_BASE_URL", "openai_base_url", "OpenAIBaseURL", kindString},
	{"ANTHROPIC_API_KEY", "anthropic_api_key", "AnthropicAPIKey", kindSecret},
	{"DEFAULT_LLM_MODEL", "default_llm_model", "DefaultLLMModel", kindString},
	{"CLASSIFIER_MODEL", "classifier_model", "ClassifierModel", kindString},
	{"CLASSIFIER_BASE_URL", "classifier_base_url", "ClassifierBaseURL", kindString},
	{"CLASSIFIER_API_KEY", "classifier_api_key", "ClassifierAPIKey", kindSecret},
	{"EMBEDDING_MODEL", "embedding_model", "EmbeddingModel", kindString},
	{"SECRET_KEY", "secret_key", "SecretKey", kindSecret},
	{"CHROMA_DB_PATH", "chroma_db_path", "ChromaDBPath", kindString},
	{"SQLITE_DB_PATH", "sqlite_db_path", "SQLiteDBPath", kindString},
	{"MAX_SUBTASK_RETRIES", "max_subtask_retries", "MaxSubtaskRetries", kindInt},
	{"MAX_PLAN_RETRIES", "max_plan_retries", "MaxPlanRetries", kindInt},
}

var (
	fieldByEnv    = map[string]field{}
	fieldByGoName = map[string]field{}
)

func init() {
	for _, f := range fields {
		fieldByEnv[f.env] = f
		fieldByGoName[f.goName] = f
	}
}

// envToPath is the koanf env-provider callback.  Returning an empty key
// drops the variable, which is how both unknown names and empty values are
// treated as unset.
func envToPath(key, value string) (string, interface{}) {
	f, ok := fieldByEnv[key]
	if !ok {
		return "", nil
	}
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return f.path, value
}

// coerceBool maps the accepted boolean tokens onto a native bool.  YAML
// scalars arrive already typed and pass straight through.
func coerceBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int:
		if v == 1 {
			return true, nil
		}
		if v == 0 {
			return false, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean token (want true/false, 1/0, yes/no, or on/off)", v)
	}
	return false, fmt.Errorf("%v is not a boolean", raw)
}

// coerceInt parses integer tokens strictly: no floats, no suffixes, no
// silent truncation.
func coerceInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("%d overflows int", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q is not a valid integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%v is not an integer", raw)
}
