package prompts

import (
	_ "embed"
)

//go:embed classifier.txt
var ClassifierPrompt string

const ClassifierSystemPrompt = "You are a task routing AI. Always respond with valid JSON only."
