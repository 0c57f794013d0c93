package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified. The loaded set is replaced wholesale so a reload triggered by
// the prompt watcher never exposes a half-updated state.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	var prompts AllLoadedPrompts

	// Load global prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.CustomPrompts.SystemPrompts, &prompts.Global.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load global system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.CustomPrompts.UserPrompts, &prompts.Global.UserPrompts); err != nil {
		return fmt.Errorf("failed to load global user prompts: %w", err)
	}

	// Load operation-specific prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.Analyze.CustomPrompts.SystemPrompts, &prompts.Analyze.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load analyze system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Analyze.CustomPrompts.UserPrompts, &prompts.Analyze.UserPrompts); err != nil {
		return fmt.Errorf("failed to load analyze user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Optimize.CustomPrompts.SystemPrompts, &prompts.Optimize.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load optimize system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Optimize.CustomPrompts.UserPrompts, &prompts.Optimize.UserPrompts); err != nil {
		return fmt.Errorf("failed to load optimize user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Chat.CustomPrompts.SystemPrompts, &prompts.Chat.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load chat system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Chat.CustomPrompts.UserPrompts, &prompts.Chat.UserPrompts); err != nil {
		return fmt.Errorf("failed to load chat user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Parse.CustomPrompts.SystemPrompts, &prompts.Parse.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load parse system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Parse.CustomPrompts.UserPrompts, &prompts.Parse.UserPrompts); err != nil {
		return fmt.Errorf("failed to load parse user prompts: %w", err)
	}

	setLoadedPrompts(prompts)

	// Log summary of prompt sources after loading
	c.logPromptLoadingSummary()

	return nil
}

// ReloadPrompts re-reads all configured prompt files. Used by the prompt
// watcher when a file changes on disk.
func (c *Config) ReloadPrompts() error {
	if err := c.validatePromptFiles(); err != nil {
		return fmt.Errorf("prompt file validation failed: %w", err)
	}
	return c.loadPromptsFromFiles()
}

// loadSystemPromptsFromFiles loads system prompts from files if file paths are specified
func (c *Config) loadSystemPromptsFromFiles(prompts *SystemPrompts, target *LoadedSystemPrompts) error {
	if prompts.AnalyzeJobFile != "" {
		content, err := loadPromptFromFile(prompts.AnalyzeJobFile, "system", "analyzeJob")
		if err != nil {
			return err
		}
		target.AnalyzeJob = content
	}

	if prompts.OptimizeBulletFile != "" {
		content, err := loadPromptFromFile(prompts.OptimizeBulletFile, "system", "optimizeBullet")
		if err != nil {
			return err
		}
		target.OptimizeBullet = content
	}

	if prompts.ChatAssistantFile != "" {
		content, err := loadPromptFromFile(prompts.ChatAssistantFile, "system", "chatAssistant")
		if err != nil {
			return err
		}
		target.ChatAssistant = content
	}

	if prompts.ParseResumeFile != "" {
		content, err := loadPromptFromFile(prompts.ParseResumeFile, "system", "parseResume")
		if err != nil {
			return err
		}
		target.ParseResume = content
	}

	return nil
}

// loadUserPromptsFromFiles loads user prompts from files if file paths are specified
func (c *Config) loadUserPromptsFromFiles(prompts *UserPrompts, target *LoadedUserPrompts) error {
	if prompts.AnalyzeJobFile != "" {
		content, err := loadPromptFromFile(prompts.AnalyzeJobFile, "user", "analyzeJob")
		if err != nil {
			return err
		}
		target.AnalyzeJob = content
	}

	if prompts.OptimizeBulletFile != "" {
		content, err := loadPromptFromFile(prompts.OptimizeBulletFile, "user", "optimizeBullet")
		if err != nil {
			return err
		}
		target.OptimizeBullet = content
	}

	if prompts.ChatAssistantFile != "" {
		content, err := loadPromptFromFile(prompts.ChatAssistantFile, "user", "chatAssistant")
		if err != nil {
			return err
		}
		target.ChatAssistant = content
	}

	if prompts.ParseResumeFile != "" {
		content, err := loadPromptFromFile(prompts.ParseResumeFile, "user", "parseResume")
		if err != nil {
			return err
		}
		target.ParseResume = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	// Log successful loading
	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	// Helper function to validate a file path
	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	// Validate global prompt files
	validateFile(c.AI.CustomPrompts.SystemPrompts.AnalyzeJobFile, "system", "analyzeJob")
	validateFile(c.AI.CustomPrompts.SystemPrompts.OptimizeBulletFile, "system", "optimizeBullet")
	validateFile(c.AI.CustomPrompts.SystemPrompts.ChatAssistantFile, "system", "chatAssistant")
	validateFile(c.AI.CustomPrompts.SystemPrompts.ParseResumeFile, "system", "parseResume")
	validateFile(c.AI.CustomPrompts.UserPrompts.AnalyzeJobFile, "user", "analyzeJob")
	validateFile(c.AI.CustomPrompts.UserPrompts.OptimizeBulletFile, "user", "optimizeBullet")
	validateFile(c.AI.CustomPrompts.UserPrompts.ChatAssistantFile, "user", "chatAssistant")
	validateFile(c.AI.CustomPrompts.UserPrompts.ParseResumeFile, "user", "parseResume")

	// Validate operation-specific prompt files
	validateFile(c.AI.Analyze.CustomPrompts.SystemPrompts.AnalyzeJobFile, "analyze system", "analyzeJob")
	validateFile(c.AI.Analyze.CustomPrompts.UserPrompts.AnalyzeJobFile, "analyze user", "analyzeJob")
	validateFile(c.AI.Optimize.CustomPrompts.SystemPrompts.OptimizeBulletFile, "optimize system", "optimizeBullet")
	validateFile(c.AI.Optimize.CustomPrompts.UserPrompts.OptimizeBulletFile, "optimize user", "optimizeBullet")
	validateFile(c.AI.Chat.CustomPrompts.SystemPrompts.ChatAssistantFile, "chat system", "chatAssistant")
	validateFile(c.AI.Chat.CustomPrompts.UserPrompts.ChatAssistantFile, "chat user", "chatAssistant")
	validateFile(c.AI.Parse.CustomPrompts.SystemPrompts.ParseResumeFile, "parse system", "parseResume")
	validateFile(c.AI.Parse.CustomPrompts.UserPrompts.ParseResumeFile, "parse user", "parseResume")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// PromptFiles returns the distinct set of configured prompt file paths
func (c *Config) PromptFiles() []string {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, sp := range []*SystemPrompts{
		&c.AI.CustomPrompts.SystemPrompts,
		&c.AI.Analyze.CustomPrompts.SystemPrompts,
		&c.AI.Optimize.CustomPrompts.SystemPrompts,
		&c.AI.Chat.CustomPrompts.SystemPrompts,
		&c.AI.Parse.CustomPrompts.SystemPrompts,
	} {
		add(sp.AnalyzeJobFile)
		add(sp.OptimizeBulletFile)
		add(sp.ChatAssistantFile)
		add(sp.ParseResumeFile)
	}

	for _, up := range []*UserPrompts{
		&c.AI.CustomPrompts.UserPrompts,
		&c.AI.Analyze.CustomPrompts.UserPrompts,
		&c.AI.Optimize.CustomPrompts.UserPrompts,
		&c.AI.Chat.CustomPrompts.UserPrompts,
		&c.AI.Parse.CustomPrompts.UserPrompts,
	} {
		add(up.AnalyzeJobFile)
		add(up.OptimizeBulletFile)
		add(up.ChatAssistantFile)
		add(up.ParseResumeFile)
	}

	return files
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptCount := 0

	loadedPromptsMu.RLock()
	promptChecks := []struct {
		content string
		message string
	}{
		{loadedPrompts.Global.SystemPrompts.AnalyzeJob, "[CONFIG] Global system analyze prompt: loaded from config/file"},
		{loadedPrompts.Global.SystemPrompts.OptimizeBullet, "[CONFIG] Global system optimize prompt: loaded from config/file"},
		{loadedPrompts.Global.SystemPrompts.ChatAssistant, "[CONFIG] Global system chat prompt: loaded from config/file"},
		{loadedPrompts.Global.SystemPrompts.ParseResume, "[CONFIG] Global system parse prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.AnalyzeJob, "[CONFIG] Global user analyze prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.OptimizeBullet, "[CONFIG] Global user optimize prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.ChatAssistant, "[CONFIG] Global user chat prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.ParseResume, "[CONFIG] Global user parse prompt: loaded from config/file"},
		{loadedPrompts.Analyze.SystemPrompts.AnalyzeJob, "[CONFIG] Analyze-specific system prompt: loaded from config/file"},
		{loadedPrompts.Analyze.UserPrompts.AnalyzeJob, "[CONFIG] Analyze-specific user prompt: loaded from config/file"},
		{loadedPrompts.Optimize.SystemPrompts.OptimizeBullet, "[CONFIG] Optimize-specific system prompt: loaded from config/file"},
		{loadedPrompts.Optimize.UserPrompts.OptimizeBullet, "[CONFIG] Optimize-specific user prompt: loaded from config/file"},
		{loadedPrompts.Chat.SystemPrompts.ChatAssistant, "[CONFIG] Chat-specific system prompt: loaded from config/file"},
		{loadedPrompts.Chat.UserPrompts.ChatAssistant, "[CONFIG] Chat-specific user prompt: loaded from config/file"},
		{loadedPrompts.Parse.SystemPrompts.ParseResume, "[CONFIG] Parse-specific system prompt: loaded from config/file"},
		{loadedPrompts.Parse.UserPrompts.ParseResume, "[CONFIG] Parse-specific user prompt: loaded from config/file"},
	}
	loadedPromptsMu.RUnlock()

	for _, check := range promptChecks {
		if check.content != "" {
			log.Println(check.message)
			promptCount++
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
