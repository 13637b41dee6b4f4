package openai

import "fmt"

// namingSystemPrompt captures the instructions sent to the naming model when a
// new category is created. Keep updates centralized here so it is easy to
// tweak without hunting through call sites.
const namingSystemPrompt = "You are an assistant tasked with creating meaningful, concise category names based on text."

func namingUserPrompt(transcription string) string {
	return fmt.Sprintf("Suggest a relevant two-word name for this text: %s", transcription)
}
