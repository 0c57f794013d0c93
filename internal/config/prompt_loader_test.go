package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	// Create temporary directory for test files
	tempDir := t.TempDir()

	// Create test prompt files
	systemPromptContent := "Test system prompt for job analysis"
	userPromptContent := "Test user prompt template: %s"

	systemPromptFile := filepath.Join(tempDir, "system.analyze.md")
	userPromptFile := filepath.Join(tempDir, "user.analyze.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}

	if err := os.WriteFile(userPromptFile, []byte(userPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	// Create test config
	config := &Config{
		AI: AIConfig{
			Analyze: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						AnalyzeJobFile: systemPromptFile,
					},
					UserPrompts: UserPrompts{
						AnalyzeJobFile: userPromptFile,
					},
				},
			},
		},
	}

	// Test file loading
	err := config.loadPromptsFromFiles()
	if err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	// Verify content was loaded into global loadedPrompts
	loadedOps := GetPromptsForOperation("analyze")

	if loadedOps.SystemPrompts.AnalyzeJob != systemPromptContent {
		t.Errorf("Expected loaded system prompt content '%s', got '%s'",
			systemPromptContent, loadedOps.SystemPrompts.AnalyzeJob)
	}

	if loadedOps.UserPrompts.AnalyzeJob != userPromptContent {
		t.Errorf("Expected loaded user prompt content '%s', got '%s'",
			userPromptContent, loadedOps.UserPrompts.AnalyzeJob)
	}

	// Verify file paths are preserved
	if config.AI.Analyze.CustomPrompts.SystemPrompts.AnalyzeJobFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}

	if config.AI.Analyze.CustomPrompts.UserPrompts.AnalyzeJobFile != userPromptFile {
		t.Error("Expected user prompt file path to be preserved")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	// Create temporary directory for test files
	tempDir := t.TempDir()

	// Create a valid test file
	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	// Test with valid file
	config := &Config{
		AI: AIConfig{
			Optimize: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						OptimizeBulletFile: validFile,
					},
				},
			},
		},
	}

	err := config.validatePromptFiles()
	if err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	// Test with non-existent file
	config.AI.Optimize.CustomPrompts.SystemPrompts.OptimizeBulletFile = filepath.Join(tempDir, "nonexistent.md")

	err = config.validatePromptFiles()
	if err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	// Create temporary directory for test files
	tempDir := t.TempDir()

	// Test with valid file
	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	if err := os.WriteFile(testFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loadedContent, err := loadPromptFromFile(testFile, "system", "analyze")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}

	if loadedContent != content {
		t.Errorf("Expected content '%s', got '%s'", content, loadedContent)
	}

	// Test with empty file
	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte(""), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}

	_, err = loadPromptFromFile(emptyFile, "system", "analyze")
	if err == nil {
		t.Error("Expected error for empty file")
	}

	// Test with non-existent file
	_, err = loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "analyze")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestReloadPrompts(t *testing.T) {
	tempDir := t.TempDir()

	systemFile := filepath.Join(tempDir, "system.chat.md")
	if err := os.WriteFile(systemFile, []byte("Original chat prompt"), 0600); err != nil {
		t.Fatalf("Failed to create system prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Chat: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						ChatAssistantFile: systemFile,
					},
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if got := GetPromptsForOperation("chat").SystemPrompts.ChatAssistant; got != "Original chat prompt" {
		t.Fatalf("Expected original prompt content, got '%s'", got)
	}

	// Rewrite the file and reload, simulating what the prompt watcher does
	if err := os.WriteFile(systemFile, []byte("Updated chat prompt"), 0600); err != nil {
		t.Fatalf("Failed to update system prompt file: %v", err)
	}

	if err := config.ReloadPrompts(); err != nil {
		t.Fatalf("Failed to reload prompts: %v", err)
	}

	if got := GetPromptsForOperation("chat").SystemPrompts.ChatAssistant; got != "Updated chat prompt" {
		t.Errorf("Expected updated prompt content after reload, got '%s'", got)
	}
}

func TestPromptFiles(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: SystemPrompts{
					AnalyzeJobFile: "prompts/analyze.md",
				},
			},
			Optimize: OperationAIConfig{
				CustomPrompts: PromptConfig{
					UserPrompts: UserPrompts{
						OptimizeBulletFile: "prompts/optimize.md",
					},
				},
			},
			Chat: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						// Duplicate path should be reported once
						ChatAssistantFile: "prompts/analyze.md",
					},
				},
			},
		},
	}

	files := config.PromptFiles()
	if len(files) != 2 {
		t.Fatalf("Expected 2 distinct prompt files, got %d: %v", len(files), files)
	}

	seen := map[string]bool{}
	for _, f := range files {
		seen[f] = true
	}
	if !seen["prompts/analyze.md"] || !seen["prompts/optimize.md"] {
		t.Errorf("Expected both configured paths in result, got %v", files)
	}
}

func TestPromptFileIntegration(t *testing.T) {
	// Create temporary directory and config file
	tempDir := t.TempDir()

	// Create test prompt files
	systemPrompt := "Custom system prompt for testing"
	userPrompt := "Custom user prompt: %s"

	systemFile := filepath.Join(tempDir, "system.md")
	userFile := filepath.Join(tempDir, "user.md")

	if err := os.WriteFile(systemFile, []byte(systemPrompt), 0600); err != nil {
		t.Fatalf("Failed to create system prompt file: %v", err)
	}

	if err := os.WriteFile(userFile, []byte(userPrompt), 0600); err != nil {
		t.Fatalf("Failed to create user prompt file: %v", err)
	}

	// Create a minimal config that would load these files
	config := &Config{
		AI: AIConfig{
			Primary:     "gemini",
			MaxRetries:  2,
			RetryDelay:  time.Second,
			Timeout:     60 * time.Second,
			Temperature: 0.3,
			Gemini: GeminiConfig{
				APIKey: "test-key",
				Model:  "test-model",
			},
			Analyze: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						AnalyzeJobFile: systemFile,
					},
					UserPrompts: UserPrompts{
						AnalyzeJobFile: userFile,
					},
				},
			},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1024 * 1024,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
	}

	// Apply fallbacks (simulating the full config loading process)
	config.applyFallbacks()

	// Validate and load prompt files
	if err := config.validatePromptFiles(); err != nil {
		t.Fatalf("Prompt file validation failed: %v", err)
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	// Verify the prompts were loaded correctly into the global store
	loadedOps := GetPromptsForOperation("analyze")

	if loadedOps.SystemPrompts.AnalyzeJob != systemPrompt {
		t.Errorf("Expected system prompt '%s', got '%s'",
			systemPrompt, loadedOps.SystemPrompts.AnalyzeJob)
	}

	if loadedOps.UserPrompts.AnalyzeJob != userPrompt {
		t.Errorf("Expected user prompt '%s', got '%s'",
			userPrompt, loadedOps.UserPrompts.AnalyzeJob)
	}

	// Verify the original config paths are preserved
	if config.AI.Analyze.CustomPrompts.SystemPrompts.AnalyzeJobFile != systemFile {
		t.Error("Expected system prompt file path to be preserved")
	}

	if config.AI.Analyze.CustomPrompts.UserPrompts.AnalyzeJobFile != userFile {
		t.Error("Expected user prompt file path to be preserved")
	}
}
