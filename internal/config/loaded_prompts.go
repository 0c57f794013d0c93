package config

import (
	"sync"
)

// loadedPrompts holds prompt content loaded from external files. Guarded by a
// mutex because the prompt watcher may reload it while operations read it.
var (
	loadedPrompts   AllLoadedPrompts
	loadedPromptsMu sync.RWMutex
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	AnalyzeJob     string
	OptimizeBullet string
	ChatAssistant  string
	ParseResume    string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	AnalyzeJob     string
	OptimizeBullet string
	ChatAssistant  string
	ParseResume    string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global   LoadedPrompts
	Analyze  OperationLoadedPrompts
	Optimize OperationLoadedPrompts
	Chat     OperationLoadedPrompts
	Parse    OperationLoadedPrompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()

	switch operationType {
	case "analyze":
		return loadedPrompts.Analyze
	case "optimize":
		return loadedPrompts.Optimize
	case "chat":
		return loadedPrompts.Chat
	case "parse":
		return loadedPrompts.Parse
	default:
		return OperationLoadedPrompts{
			SystemPrompts: loadedPrompts.Global.SystemPrompts,
			UserPrompts:   loadedPrompts.Global.UserPrompts,
		}
	}
}

// setLoadedPrompts atomically replaces the loaded prompt set
func setLoadedPrompts(prompts AllLoadedPrompts) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	loadedPrompts = prompts
}
