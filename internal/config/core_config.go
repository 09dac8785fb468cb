package config

const (
	webhookURLVar = "CORE_WEBHOOK_URL"
	storePathVar  = "STORE_PATH"
)

type Core struct{}

var _ CoreConfig = Core{}

// GetWebhookURL returns the Core endpoint that relayed messages are POSTed to.
func (Core) GetWebhookURL() string {
	return GetEnv(webhookURLVar, "")
}

func (Core) GetStorePath() string {
	return GetEnv(storePathVar, "./data/sessions.json")
}
