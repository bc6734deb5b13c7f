package roadmap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PersonalizeSystemPrompt instructs the model to annotate, not restructure, the tree.
const PersonalizeSystemPrompt = `You personalize a university learning roadmap for one student.

Input:
1. The student's profile: skills, soft skills, course grades, weekly study time, interests, projects.
2. The canonical roadmap for the target career as JSON.

For EVERY item in the roadmap:
- set "check" to true if the student has already mastered the item, otherwise false;
- set "personalization" to an object with all of these fields:
  - "status": one of "already_mastered", "high_priority", "medium_priority", "low_priority", "optional";
  - "priority": an integer, 0 is the highest priority and larger numbers are lower;
  - "personalized_description": one or two sentences on what the item means for this student;
  - "reason": one short sentence citing concrete evidence from the profile.

Rules:
- Keep the JSON structure exactly as given. Do not add, remove or reorder stages, areas or items, and do not rename any key.
- Only "check" and "personalization" may be added or changed, and only on items.
- Return the complete roadmap. Never abbreviate with "..." or similar.
- Return exactly one JSON object: no comments, no trailing commas, no markdown fences, no text before or after it.`

// PersonalizePrompt builds the user message: profile text, canonical JSON and task.
func PersonalizePrompt(profileText string, canonical *Roadmap) (string, error) {
	tree, err := json.MarshalIndent(canonical, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal canonical roadmap: %w", err)
	}
	var b strings.Builder
	b.WriteString(profileText)
	b.WriteString("\n\nCANONICAL ROADMAP JSON:\n")
	b.Write(tree)
	b.WriteString("\n\nTASK:\n")
	b.WriteString("Return exactly ONE JSON object with the SAME structure, adding or updating only " +
		"\"check\" and \"personalization\" on each item. Do not remove any stages, areas or items.")
	return b.String(), nil
}
