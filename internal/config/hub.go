package config

import (
	"fmt"
	"strings"

	pkgconfig "intelhub/internal/pkg/config"
)

// HubConfig holds the Intelligence Integration Hub's startup configuration,
// loaded from environment variables.
type HubConfig struct {
	// LLM backend selection.
	LLMBackend string // "claude" or "openai"
	LLMAPIKey  string
	LLMModel   string

	// Analysis Worker.
	SystemPrompt     string
	ExcludeRateClass string
	ConversationDir  string

	// Queues.
	IngestionQueueCapacity int
	PostProcessQueueCapacity int

	// Archival Worker / RSS.
	IntelligenceLinkBase string
	RSSCapacity          int

	// Result Cache.
	ResultCacheThreshold float64
	ResultCacheMaxCount  int
	ResultCacheMaxAge    string // parsed by caller via time.ParseDuration

	// Key Rotator.
	KeyRotatorFile      string
	KeyRotatorThreshold float64
	KeyRotatorKeys      []string
	BalanceEndpointURL  string

	// Bearer-token sets.
	RPCAPITokens     []string
	CollectorTokens  []string
	ProcessorTokens  []string

	// Persisted state.
	CrawlRecordDBPath string

	// HTTP.
	ListenAddr string
}

// LoadHubConfig loads HubConfig from environment variables. When
// HUB_CONFIG_FILE names a JSON or YAML document, its dotted keys override
// the environment for the settings it carries; the environment remains the
// fallback for everything the file omits.
func LoadHubConfig() (*HubConfig, error) {
	cfg := &HubConfig{
		LLMBackend:       getEnvOrDefault("HUB_LLM_BACKEND", "claude"),
		LLMAPIKey:        getEnvOrDefault("HUB_LLM_API_KEY", ""),
		LLMModel:         getEnvOrDefault("HUB_LLM_MODEL", ""),
		SystemPrompt:     getEnvOrDefault("HUB_SYSTEM_PROMPT", defaultSystemPrompt),
		ExcludeRateClass: getEnvOrDefault("HUB_EXCLUDE_RATE_CLASS", "accuracy"),
		ConversationDir:  getEnvOrDefault("HUB_CONVERSATION_DIR", "conversation"),

		IngestionQueueCapacity:   getEnvInt("HUB_INGESTION_QUEUE_CAPACITY", 256),
		PostProcessQueueCapacity: getEnvInt("HUB_POSTPROCESS_QUEUE_CAPACITY", 256),

		IntelligenceLinkBase: getEnvOrDefault("HUB_INTELLIGENCE_LINK_BASE", "http://localhost:8080/intelligence"),
		RSSCapacity:          getEnvInt("HUB_RSS_CAPACITY", 100),

		ResultCacheThreshold: getEnvFloat("HUB_RESULT_CACHE_THRESHOLD", 0.7),
		ResultCacheMaxCount:  getEnvInt("HUB_RESULT_CACHE_MAX_COUNT", 500),
		ResultCacheMaxAge:    getEnvOrDefault("HUB_RESULT_CACHE_MAX_AGE", "72h"),

		KeyRotatorFile:      getEnvOrDefault("HUB_KEY_ROTATOR_FILE", "keys.json"),
		KeyRotatorThreshold: getEnvFloat("HUB_KEY_ROTATOR_THRESHOLD", 1.0),
		KeyRotatorKeys:      splitList(getEnvOrDefault("HUB_KEY_ROTATOR_KEYS", "")),
		BalanceEndpointURL:  getEnvOrDefault("HUB_BALANCE_ENDPOINT_URL", ""),

		RPCAPITokens:    splitList(getEnvOrDefault("HUB_RPC_API_TOKENS", "")),
		CollectorTokens: splitList(getEnvOrDefault("HUB_COLLECTOR_TOKENS", "")),
		ProcessorTokens: splitList(getEnvOrDefault("HUB_PROCESSOR_TOKENS", "")),

		CrawlRecordDBPath: getEnvOrDefault("HUB_CRAWL_RECORD_DB_PATH", "crawl_record.db"),
		ListenAddr:        getEnvOrDefault("HUB_LISTEN_ADDR", ":8080"),
	}

	if path := getEnvOrDefault("HUB_CONFIG_FILE", ""); path != "" {
		file, err := pkgconfig.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.applyFile(file)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays the dotted-key config document onto cfg. Only keys
// present in the file override the environment-derived values.
func (c *HubConfig) applyFile(f *pkgconfig.FileConfig) {
	c.LLMBackend = f.GetString("llm.backend", c.LLMBackend)
	c.LLMAPIKey = f.GetString("llm.api_key", c.LLMAPIKey)
	c.LLMModel = f.GetString("llm.model", c.LLMModel)
	c.SystemPrompt = f.GetString("llm.system_prompt", c.SystemPrompt)
	c.ExcludeRateClass = f.GetString("intake.exclude_rate_class", c.ExcludeRateClass)
	c.ConversationDir = f.GetString("intake.conversation_dir", c.ConversationDir)

	c.IngestionQueueCapacity = f.GetInt("intake.ingestion_queue_capacity", c.IngestionQueueCapacity)
	c.PostProcessQueueCapacity = f.GetInt("intake.postprocess_queue_capacity", c.PostProcessQueueCapacity)

	c.IntelligenceLinkBase = f.GetString("rss.host_prefix", c.IntelligenceLinkBase)
	c.RSSCapacity = f.GetInt("rss.capacity", c.RSSCapacity)

	c.ResultCacheThreshold = f.GetFloat("intake.threshold", c.ResultCacheThreshold)
	c.ResultCacheMaxCount = f.GetInt("result_cache.max_count", c.ResultCacheMaxCount)
	c.ResultCacheMaxAge = f.GetString("result_cache.max_age", c.ResultCacheMaxAge)

	c.KeyRotatorFile = f.GetString("key_rotator.file", c.KeyRotatorFile)
	c.KeyRotatorThreshold = f.GetFloat("key_rotator.threshold", c.KeyRotatorThreshold)
	if keys := f.GetStrings("key_rotator.keys"); keys != nil {
		c.KeyRotatorKeys = keys
	}
	c.BalanceEndpointURL = f.GetString("key_rotator.balance_endpoint", c.BalanceEndpointURL)

	if v := f.GetStrings("tokens.rpc_api"); v != nil {
		c.RPCAPITokens = v
	}
	if v := f.GetStrings("tokens.collector"); v != nil {
		c.CollectorTokens = v
	}
	if v := f.GetStrings("tokens.processor"); v != nil {
		c.ProcessorTokens = v
	}

	c.CrawlRecordDBPath = f.GetString("store.crawl_record_db", c.CrawlRecordDBPath)
	c.ListenAddr = f.GetString("http.listen_addr", c.ListenAddr)
}

const defaultSystemPrompt = `You analyze a raw intelligence submission and return a single JSON object ` +
	`with fields: uuid, informant, pub_time, time, location, people, organization, ` +
	`event_title, event_brief, event_text, rate (an object of named scores 0-1), impact, tips. ` +
	`If the item is not worth archiving, omit event_text entirely.`

// Validate checks configuration invariants.
func (c *HubConfig) Validate() error {
	if c.LLMBackend != "claude" && c.LLMBackend != "openai" {
		return fmt.Errorf("HUB_LLM_BACKEND must be \"claude\" or \"openai\"")
	}
	if c.IngestionQueueCapacity <= 0 {
		return fmt.Errorf("HUB_INGESTION_QUEUE_CAPACITY must be positive")
	}
	if c.PostProcessQueueCapacity <= 0 {
		return fmt.Errorf("HUB_POSTPROCESS_QUEUE_CAPACITY must be positive")
	}
	if c.ResultCacheThreshold < 0 || c.ResultCacheThreshold > 1 {
		return fmt.Errorf("HUB_RESULT_CACHE_THRESHOLD must be between 0.0 and 1.0")
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
