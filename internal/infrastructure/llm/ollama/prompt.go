package ollama

import "fmt"

func buildStructuringPrompt(rawText string) string {
	return fmt.Sprintf(`Analyze this civic complaint and provide a structured JSON response.
The complaint can be in Hindi, English, or Hinglish.

Complaint Text: %q

You MUST respond with a JSON object in this EXACT format:
{
  "processed_text": "A concise summary of the complaint",
  "issue": "A specific English category (e.g., Garbage Collection, Road Damage, Water Leakage)",
  "area": "The name of the area mentioned, or 'Not Specified'",
  "time": "The time duration or when the issue started, or 'Not Specified'"
}
Respond with only the JSON object, no other text.`, rawText)
}
