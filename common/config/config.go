package config

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/songquanpeng/hamming-ci/common/helper"
)

// Version is stamped at build time with -ldflags "-X .../common/config.Version=...".
var Version = "v0.0.0-dev"

const (
	DefaultAPIBaseURL      = "https://app.hamming.ai/api/rest"
	DefaultUIBaseURL       = "https://app.hamming.ai"
	DefaultSuccessStatuses = "COMPLETED,FINISHED"
)

// Config is the effective configuration of one invocation. It is built once in main
// and handed to every stage.
type Config struct {
	// APIKey authenticates every request against the Hamming REST API.
	APIKey string `yaml:"api_key" env:"HAMMING_API_KEY"`
	// APIBaseURL is the REST root, without trailing slash.
	APIBaseURL string `yaml:"api_base_url" env:"HAMMING_API_BASE_URL" env-default:"https://app.hamming.ai/api/rest"`
	// UIBaseURL is used to render links to runs and test cases in reports.
	UIBaseURL string `yaml:"ui_base_url" env:"HAMMING_UI_BASE_URL" env-default:"https://app.hamming.ai"`

	// AgentID is the voice agent under test.
	AgentID string `yaml:"agent_id" env:"AGENT_ID"`
	// TagIDs selects test cases by tag, comma separated. Mutually exclusive with TestCaseIDs.
	TagIDs string `yaml:"tag_ids" env:"TAG_IDS"`
	// TestCaseIDs selects test cases explicitly, comma separated.
	TestCaseIDs string `yaml:"test_case_ids" env:"TEST_CASE_IDS"`
	// PhoneNumbers are the numbers the agent answers on, comma separated, each starting with "+".
	PhoneNumbers string `yaml:"phone_numbers" env:"PHONE_NUMBERS"`
	// ScenarioOverride replaces the scenario of every selected test case.
	ScenarioOverride string `yaml:"scenario_override" env:"SCENARIO_OVERRIDE"`
	// PersonaOverride replaces the caller persona of every selected test case.
	PersonaOverride string `yaml:"persona_override" env:"PERSONA_OVERRIDE"`

	PollIntervalSeconds int `yaml:"poll_interval_seconds" env:"POLL_INTERVAL_SECONDS" env-default:"10"`
	TimeoutSeconds      int `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS" env-default:"600"`
	// HTTPTimeoutSeconds bounds a single API call, so a hung upstream cannot stall the poll loop forever.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds" env:"HTTP_TIMEOUT_SECONDS" env-default:"30"`

	MinTestPassRate      float64 `yaml:"min_test_pass_rate" env:"MIN_TEST_PASS_RATE" env-default:"1.0"`
	MinAssertionPassRate float64 `yaml:"min_assertion_pass_rate" env:"MIN_ASSERTION_PASS_RATE" env-default:"1.0"`
	// SuccessStatuses lists the run statuses accepted as success, comma separated.
	SuccessStatuses string `yaml:"success_statuses" env:"SUCCESS_STATUSES" env-default:"COMPLETED,FINISHED"`

	// Debug toggles verbose structured logging when DEBUG=true.
	Debug bool `yaml:"debug" env:"DEBUG"`
	// LogFile additionally appends every log line to this file, e.g. for CI artifacts.
	LogFile string `yaml:"log_file" env:"LOG_FILE"`

	LogPushAPI   string `yaml:"log_push_api" env:"LOG_PUSH_API"`
	LogPushType  string `yaml:"log_push_type" env:"LOG_PUSH_TYPE"`
	LogPushToken string `yaml:"log_push_token" env:"LOG_PUSH_TOKEN"`

	// MessagePusherAddress receives a notification whenever the gate fails.
	MessagePusherAddress string `yaml:"message_pusher_address" env:"MESSAGE_PUSHER_ADDRESS"`
	MessagePusherToken   string `yaml:"message_pusher_token" env:"MESSAGE_PUSHER_TOKEN"`

	// MetricsTextfile is written in the node_exporter textfile format after every gate check.
	MetricsTextfile string `yaml:"metrics_textfile" env:"METRICS_TEXTFILE"`
	// PushgatewayURL receives the gate metrics when set.
	PushgatewayURL string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL"`
	MetricsJob     string `yaml:"metrics_job" env:"METRICS_JOB" env-default:"hamming_ci"`
}

// Load reads the configuration from the environment. When path is not empty the YAML
// file is read first and the environment overrides it.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errors.Wrap(err, "read env")
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "read config file %q", path)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.AgentID = strings.TrimSpace(c.AgentID)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.UIBaseURL = strings.TrimRight(strings.TrimSpace(c.UIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.UIBaseURL == "" {
		c.UIBaseURL = DefaultUIBaseURL
	}
	if strings.TrimSpace(c.SuccessStatuses) == "" {
		c.SuccessStatuses = DefaultSuccessStatuses
	}
}

func (c *Config) TagIDList() []string          { return helper.ParseCommaSeparated(c.TagIDs) }
func (c *Config) TestCaseIDList() []string     { return helper.ParseCommaSeparated(c.TestCaseIDs) }
func (c *Config) PhoneNumberList() []string    { return helper.ParseCommaSeparated(c.PhoneNumbers) }
func (c *Config) SuccessStatusList() []string  { return helper.ParseCommaSeparated(c.SuccessStatuses) }
func (c *Config) PollInterval() time.Duration  { return time.Duration(c.PollIntervalSeconds) * time.Second }
func (c *Config) Timeout() time.Duration       { return time.Duration(c.TimeoutSeconds) * time.Second }
func (c *Config) HTTPTimeout() time.Duration   { return time.Duration(c.HTTPTimeoutSeconds) * time.Second }
func (c *Config) TestRunURL(id string) string  { return fmt.Sprintf("%s/test-runs/%s", c.UIBaseURL, id) }
func (c *Config) TestCaseURL(id string) string { return fmt.Sprintf("%s/test-cases/%s", c.UIBaseURL, id) }

// Headers returns the headers sent with every API request.
func (c *Config) Headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+c.APIKey)
	h.Set("User-Agent", "hamming-ci/"+Version)
	return h
}

// ValidationError aggregates every configuration problem found in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "configuration errors: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// ValidateLaunch checks everything the run launcher needs before any network call.
func (c *Config) ValidateLaunch() error {
	verr := new(ValidationError)
	c.checkAPIKey(verr)
	if c.AgentID == "" {
		verr.add("AGENT_ID is not set")
	}
	if len(c.PhoneNumberList()) == 0 {
		verr.add("PHONE_NUMBERS is not set")
	}

	tags, cases := c.TagIDList(), c.TestCaseIDList()
	switch {
	case len(tags) == 0 && len(cases) == 0:
		verr.add("either TAG_IDS or TEST_CASE_IDS must be set")
	case len(tags) > 0 && len(cases) > 0:
		verr.add("TAG_IDS and TEST_CASE_IDS are mutually exclusive")
	}

	c.checkPolling(verr)
	c.checkGate(verr)
	return verr.orNil()
}

// ValidatePoll checks what the run poller needs.
func (c *Config) ValidatePoll() error {
	verr := new(ValidationError)
	c.checkAPIKey(verr)
	c.checkPolling(verr)
	return verr.orNil()
}

// ValidateGate checks the evaluator thresholds and the accepted status set.
func (c *Config) ValidateGate() error {
	verr := new(ValidationError)
	c.checkGate(verr)
	return verr.orNil()
}

func (c *Config) checkAPIKey(verr *ValidationError) {
	if c.APIKey == "" {
		verr.add("HAMMING_API_KEY is not set")
	}
}

func (c *Config) checkPolling(verr *ValidationError) {
	if c.PollIntervalSeconds <= 0 {
		verr.add("POLL_INTERVAL_SECONDS must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.TimeoutSeconds <= 0 {
		verr.add("TIMEOUT_SECONDS must be positive, got %d", c.TimeoutSeconds)
	}
	if c.HTTPTimeoutSeconds <= 0 {
		verr.add("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds)
	}
}

func (c *Config) checkGate(verr *ValidationError) {
	if !isRate(c.MinTestPassRate) {
		verr.add("MIN_TEST_PASS_RATE must be within [0, 1], got %v", c.MinTestPassRate)
	}
	if !isRate(c.MinAssertionPassRate) {
		verr.add("MIN_ASSERTION_PASS_RATE must be within [0, 1], got %v", c.MinAssertionPassRate)
	}
	if len(c.SuccessStatusList()) == 0 {
		verr.add("SUCCESS_STATUSES is empty")
	}
}

// isRate reports whether v lies in [0, 1]. NaN does not.
func isRate(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.APIKey = helper.Mask(cp.APIKey)
	cp.LogPushToken = helper.Mask(cp.LogPushToken)
	cp.MessagePusherToken = helper.Mask(cp.MessagePusherToken)
	return &cp
}

// YAML renders the redacted configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return out, nil
}
