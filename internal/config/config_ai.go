package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.MaxTokens == nil {
		opCfg.MaxTokens = &c.AI.MaxTokens
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetAnalyzeConfig returns the AI configuration for analyze operations with fallback to global config
func (c *Config) GetAnalyzeConfig() OperationAIConfig {
	config := c.AI.Analyze

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply analyze-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.AnalyzeJob == "" {
		config.CustomPrompts.SystemPrompts.AnalyzeJob = c.AI.CustomPrompts.SystemPrompts.AnalyzeJob
	}
	if config.CustomPrompts.UserPrompts.AnalyzeJob == "" {
		config.CustomPrompts.UserPrompts.AnalyzeJob = c.AI.CustomPrompts.UserPrompts.AnalyzeJob
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.AnalyzeJobFile == "" {
		config.CustomPrompts.SystemPrompts.AnalyzeJobFile = c.AI.CustomPrompts.SystemPrompts.AnalyzeJobFile
	}
	if config.CustomPrompts.UserPrompts.AnalyzeJobFile == "" {
		config.CustomPrompts.UserPrompts.AnalyzeJobFile = c.AI.CustomPrompts.UserPrompts.AnalyzeJobFile
	}

	return config
}

// GetOptimizeConfig returns the AI configuration for optimize operations with fallback to global config
func (c *Config) GetOptimizeConfig() OperationAIConfig {
	config := c.AI.Optimize

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply optimize-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.OptimizeBullet == "" {
		config.CustomPrompts.SystemPrompts.OptimizeBullet = c.AI.CustomPrompts.SystemPrompts.OptimizeBullet
	}
	if config.CustomPrompts.UserPrompts.OptimizeBullet == "" {
		config.CustomPrompts.UserPrompts.OptimizeBullet = c.AI.CustomPrompts.UserPrompts.OptimizeBullet
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.OptimizeBulletFile == "" {
		config.CustomPrompts.SystemPrompts.OptimizeBulletFile = c.AI.CustomPrompts.SystemPrompts.OptimizeBulletFile
	}
	if config.CustomPrompts.UserPrompts.OptimizeBulletFile == "" {
		config.CustomPrompts.UserPrompts.OptimizeBulletFile = c.AI.CustomPrompts.UserPrompts.OptimizeBulletFile
	}

	return config
}

// GetChatConfig returns the AI configuration for chat operations with fallback to global config
func (c *Config) GetChatConfig() OperationAIConfig {
	config := c.AI.Chat

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply chat-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ChatAssistant == "" {
		config.CustomPrompts.SystemPrompts.ChatAssistant = c.AI.CustomPrompts.SystemPrompts.ChatAssistant
	}
	if config.CustomPrompts.UserPrompts.ChatAssistant == "" {
		config.CustomPrompts.UserPrompts.ChatAssistant = c.AI.CustomPrompts.UserPrompts.ChatAssistant
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ChatAssistantFile == "" {
		config.CustomPrompts.SystemPrompts.ChatAssistantFile = c.AI.CustomPrompts.SystemPrompts.ChatAssistantFile
	}
	if config.CustomPrompts.UserPrompts.ChatAssistantFile == "" {
		config.CustomPrompts.UserPrompts.ChatAssistantFile = c.AI.CustomPrompts.UserPrompts.ChatAssistantFile
	}

	return config
}

// GetParseConfig returns the AI configuration for resume parse operations with fallback to global config
func (c *Config) GetParseConfig() OperationAIConfig {
	config := c.AI.Parse

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply parse-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ParseResume == "" {
		config.CustomPrompts.SystemPrompts.ParseResume = c.AI.CustomPrompts.SystemPrompts.ParseResume
	}
	if config.CustomPrompts.UserPrompts.ParseResume == "" {
		config.CustomPrompts.UserPrompts.ParseResume = c.AI.CustomPrompts.UserPrompts.ParseResume
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ParseResumeFile == "" {
		config.CustomPrompts.SystemPrompts.ParseResumeFile = c.AI.CustomPrompts.SystemPrompts.ParseResumeFile
	}
	if config.CustomPrompts.UserPrompts.ParseResumeFile == "" {
		config.CustomPrompts.UserPrompts.ParseResumeFile = c.AI.CustomPrompts.UserPrompts.ParseResumeFile
	}

	return config
}

// GetLoadedAnalyzePrompts returns a copy of the loaded prompts for the analyze operation
func (c *Config) GetLoadedAnalyzePrompts() OperationLoadedPrompts {
	return GetPromptsForOperation("analyze")
}

// GetLoadedOptimizePrompts returns a copy of the loaded prompts for the optimize operation
func (c *Config) GetLoadedOptimizePrompts() OperationLoadedPrompts {
	return GetPromptsForOperation("optimize")
}

// GetLoadedChatPrompts returns a copy of the loaded prompts for the chat operation
func (c *Config) GetLoadedChatPrompts() OperationLoadedPrompts {
	return GetPromptsForOperation("chat")
}

// GetLoadedParsePrompts returns a copy of the loaded prompts for the parse operation
func (c *Config) GetLoadedParsePrompts() OperationLoadedPrompts {
	return GetPromptsForOperation("parse")
}
