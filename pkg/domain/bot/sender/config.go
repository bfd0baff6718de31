package sender

// ProcessorConfig is filled from the bot section of the application config.
type ProcessorConfig struct {
	Token  string
	ChatID int64
}
