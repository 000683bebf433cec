package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/wheely",
	}
}

// DefaultQueryURL is the local Wheely query service endpoint
const DefaultQueryURL = "http://127.0.0.1:8000/api/query"

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Query: QueryConfig{
			Backend: "wheely",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Credentials: CredentialsConfig{
			Security: string(SecurityPlainText),
		},
		UI: UIConfig{
			Typewriter: true,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Wheely System Configuration
# Location: ~/.config/wheely/settings.toml
# This file uses TOML format: https://toml.io

# Directory where chats, the user record and user config are stored
data_directory = "~/.local/share/wheely"
`
}

func GenerateUserConfigTemplate() string {
	return `# Wheely User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[query]
# Query backend: "wheely" (REST query service), "openai", "anthropic" or "ollama"
backend = "wheely"

# Endpoint of the query service, or base URL of an LLM backend.
# Empty means http://127.0.0.1:8000/api/query for "wheely" and the
# provider's own default otherwise.
url = ""

# Model name, only used by the LLM backends
model = ""

# Per-request timeout in seconds (0 = transport default)
timeout_seconds = 0

[storage]
# Chat history backend: "file", "sqlite", "bolt" or "memory"
backend = "file"

[credentials]
# API key storage for LLM backends: "plaintext" or "ssh_key"
security = "plaintext"
ssh_key_path = ""

[ui]
# Reveal new answers progressively
typewriter = true
`
}
